package db

import (
	"os"
	"path/filepath"
	"testing"

	"eventboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
events:
  - slug: presidential-election-winner-2024
    title: Election2024
    category: 政治
    sub_category: 美国
    source: polymarket
  - slug: fed-decision-in-december
    title: 美联储十二月决议
    category: 经济
    source: polymarket
`

func TestParseSeed(t *testing.T) {
	events, err := ParseSeed([]byte(seedYAML))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "政治", events[0].Category)
	assert.Equal(t, "美国", events[0].SubCategory)
	assert.Equal(t, "", events[1].SubCategory)

	_, err = ParseSeed([]byte("events:\n  - title: no slug\n    category: x\n"))
	assert.Error(t, err)
}

func TestSeedEventsKeepsPayload(t *testing.T) {
	conn, err := Open("sqlite://" + filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	require.NoError(t, Migrate(conn))

	path := filepath.Join(t.TempDir(), "events.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o644))
	require.NoError(t, SeedEvents(conn, path))

	require.NoError(t, conn.Model(&models.Event{}).
		Where("slug = ?", "fed-decision-in-december").
		Update("payload", `{"slug":"fed-decision-in-december"}`).Error)

	// 再次同步不应覆盖 payload
	require.NoError(t, SeedEvents(conn, path))

	var events []models.Event
	require.NoError(t, conn.Order("slug").Find(&events).Error)
	require.Len(t, events, 2)
	assert.Equal(t, `{"slug":"fed-decision-in-december"}`, events[0].Payload)
	assert.Equal(t, "美联储十二月决议", events[0].Title)
}
