package retrieval

import (
	"symptom-advisor-bot/pkg/errors"
)

// ErrRetrievalFailed 查询向量化失败，不做降级
var ErrRetrievalFailed = errors.ErrRetrievalFailed
