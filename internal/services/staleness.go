package services

import "time"

// FreshWindow 刷新时间在此窗口内的事件不允许再次抓取
const FreshWindow = 6 * time.Hour

// IsFresh lastUpdated 非空且距 now 不足 FreshWindow 时为 true；恰好 6 小时不算新鲜
func IsFresh(lastUpdated *time.Time, now time.Time) bool {
	if lastUpdated == nil {
		return false
	}
	return now.Sub(*lastUpdated) < FreshWindow
}
