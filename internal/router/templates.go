package router

import (
	"fmt"
	"html/template"
	"net/url"
	"path/filepath"
	"time"

	"eventboard/internal/services"

	"github.com/gin-contrib/multitemplate"
)

// FuncMap 模板函数
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"indent": func(depth int) string {
			return fmt.Sprintf("%.1frem", float64(depth)*1.5)
		},
		"percent": func(v float64) string {
			return fmt.Sprintf("%.1f%%", v)
		},
		"formatTime": func(t time.Time) string {
			return t.Local().Format("2006-01-02 15:04")
		},
		"timeAgo": func(t time.Time) string {
			seconds := int(time.Since(t).Seconds())
			switch {
			case seconds < 60:
				return fmt.Sprintf("%d秒前", seconds)
			case seconds < 3600:
				return fmt.Sprintf("%d分钟前", seconds/60)
			case seconds < 86400:
				return fmt.Sprintf("%d小时前", seconds/3600)
			case seconds < 2592000:
				return fmt.Sprintf("%d天前", seconds/86400)
			case seconds < 31536000:
				return fmt.Sprintf("%d个月前", seconds/2592000)
			}
			return fmt.Sprintf("%d年前", seconds/31536000)
		},
		"urlquery": func(s string) string {
			return url.QueryEscape(s)
		},
		"isPolymarket": func(v *services.EventView) bool { return v != nil && v.Kind == services.ViewPolymarket },
		"isFeed":       func(v *services.EventView) bool { return v != nil && v.Kind == services.ViewFeed },
		"isRaw":        func(v *services.EventView) bool { return v != nil && v.Kind == services.ViewRaw },
	}
}

// LoadTemplates 每个页面由 layouts + includes + components + 自身视图组成
func LoadTemplates(templatesDir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(templatesDir + "/layouts/*.html")
	if err != nil {
		panic(err)
	}
	includes, err := filepath.Glob(templatesDir + "/includes/*.html")
	if err != nil {
		panic(err)
	}
	components, err := filepath.Glob(templatesDir + "/components/*.html")
	if err != nil {
		panic(err)
	}

	assemble := func(view string) []string {
		files := make([]string, 0, len(layouts)+len(includes)+len(components)+1)
		files = append(files, layouts...)
		files = append(files, includes...)
		files = append(files, components...)
		files = append(files, view)
		return files
	}

	funcMap := FuncMap()
	for _, name := range []string{
		"auth/login.html",
		"auth/register.html",
		"event/index.html",
		"notification/list.html",
		"error.html",
	} {
		r.AddFromFilesFuncs(name, funcMap, assemble(templatesDir+"/views/"+name)...)
	}
	return r
}
