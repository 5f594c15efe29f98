// Package corpus 离线构建疾病资料的向量索引
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// Document 待索引的原始文档
type Document struct {
	Name    string
	Content string
}

var documentExts = map[string]bool{".md": true, ".txt": true}

// LoadDocuments 读取目录下的 .md/.txt 文件（不递归），按文件名排序
// 返回去除首尾空白后的内容；短于 minChars 个字符的文档被丢弃
func LoadDocuments(dir string, minChars int) (docs []Document, skipped []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read source dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !documentExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", name, err)
		}
		content := strings.TrimSpace(string(raw))
		if utf8.RuneCountInString(content) < minChars {
			skipped = append(skipped, name)
			continue
		}
		docs = append(docs, Document{Name: name, Content: content})
	}
	return docs, skipped, nil
}
