// Package entity 定义领域实体
package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ResponseKind 模型输出的变体标签
type ResponseKind string

const (
	KindMatched   ResponseKind = "matched"
	KindUnmatched ResponseKind = "unmatched"
	KindUnrelated ResponseKind = "unrelated"
)

// 字段兜底文案
const (
	FallbackDisease              = "未知疾病"
	FallbackSymptom              = "無相關症狀資訊"
	FallbackSuggestion           = "請諮詢專業醫師"
	FallbackUrgency              = "未知"
	FallbackInfo                 = "無相關資訊"
	FallbackUnmatchedMessage     = "找不到完全相符的症狀，請提供更多資訊。"
	FallbackAdditionalInfoNeeded = "症狀持續時間及其他不適"
	FallbackPossibleCondition    = "無法判斷"
	FallbackUnrelatedMessage     = "您好！我是醫療諮詢小幫手，請描述您的症狀。"
)

var (
	// ErrNotJSONObject 输出不是 JSON 对象
	ErrNotJSONObject = errors.New("response is not a JSON object")
	// ErrUnknownKind type 缺失或不在三种变体内
	ErrUnknownKind = errors.New("response type is missing or unknown")
)

// AdditionalInfo matched 变体的补充信息
type AdditionalInfo struct {
	IncubationPeriod string   `json:"incubation_period"`
	Transmission     string   `json:"transmission"`
	Prevention       []string `json:"prevention"`
}

// Matched 症状与疾病资料相符
type Matched struct {
	Disease        string         `json:"disease"`
	Symptoms       []string       `json:"symptoms"`
	Suggestions    []string       `json:"suggestions"`
	NeedDoctor     bool           `json:"need_doctor"`
	Urgency        string         `json:"urgency"`
	AdditionalInfo AdditionalInfo `json:"additional_info"`
}

// Unmatched 找不到完全相符的症状
type Unmatched struct {
	Message              string   `json:"message"`
	AdditionalInfoNeeded []string `json:"additional_info_needed"`
	Suggestions          []string `json:"suggestions"`
	NeedDoctor           bool     `json:"need_doctor"`
	Urgency              string   `json:"urgency"`
	PossibleConditions   []string `json:"possible_conditions"`
}

// Unrelated 与疾病无关的问题
type Unrelated struct {
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions"`
}

// MedicalResponse 三选一的标签联合，Kind 决定哪个指针非空
type MedicalResponse struct {
	Kind      ResponseKind
	Matched   *Matched
	Unmatched *Unmatched
	Unrelated *Unrelated
}

// NewMatchedResponse 构造 matched 响应并填充兜底值
func NewMatchedResponse(m Matched) *MedicalResponse {
	m.Disease = orDefault(m.Disease, FallbackDisease)
	m.Symptoms = listOrDefault(m.Symptoms, FallbackSymptom)
	m.Suggestions = listOrDefault(m.Suggestions, FallbackSuggestion)
	m.Urgency = orDefault(m.Urgency, FallbackUrgency)
	m.AdditionalInfo.IncubationPeriod = orDefault(m.AdditionalInfo.IncubationPeriod, FallbackInfo)
	m.AdditionalInfo.Transmission = orDefault(m.AdditionalInfo.Transmission, FallbackInfo)
	m.AdditionalInfo.Prevention = listOrDefault(m.AdditionalInfo.Prevention, FallbackInfo)
	return &MedicalResponse{Kind: KindMatched, Matched: &m}
}

// NewUnmatchedResponse 构造 unmatched 响应并填充兜底值
func NewUnmatchedResponse(u Unmatched) *MedicalResponse {
	u.Message = orDefault(u.Message, FallbackUnmatchedMessage)
	u.AdditionalInfoNeeded = listOrDefault(u.AdditionalInfoNeeded, FallbackAdditionalInfoNeeded)
	u.Suggestions = listOrDefault(u.Suggestions, FallbackSuggestion)
	u.Urgency = orDefault(u.Urgency, FallbackUrgency)
	u.PossibleConditions = listOrDefault(u.PossibleConditions, FallbackPossibleCondition)
	return &MedicalResponse{Kind: KindUnmatched, Unmatched: &u}
}

// NewUnrelatedResponse 构造 unrelated 响应并填充兜底值
func NewUnrelatedResponse(u Unrelated) *MedicalResponse {
	u.Message = orDefault(u.Message, FallbackUnrelatedMessage)
	u.Suggestions = listOrDefault(u.Suggestions, FallbackSuggestion)
	return &MedicalResponse{Kind: KindUnrelated, Unrelated: &u}
}

// Suggestions 返回当前变体的建议列表
func (r *MedicalResponse) Suggestions() []string {
	switch r.Kind {
	case KindMatched:
		return r.Matched.Suggestions
	case KindUnmatched:
		return r.Unmatched.Suggestions
	case KindUnrelated:
		return r.Unrelated.Suggestions
	}
	return nil
}

// MarshalJSON 按模型输出的扁平格式序列化
func (r *MedicalResponse) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case KindMatched:
		return json.Marshal(struct {
			Type ResponseKind `json:"type"`
			*Matched
		}{r.Kind, r.Matched})
	case KindUnmatched:
		return json.Marshal(struct {
			Type ResponseKind `json:"type"`
			*Unmatched
		}{r.Kind, r.Unmatched})
	case KindUnrelated:
		return json.Marshal(struct {
			Type ResponseKind `json:"type"`
			*Unrelated
		}{r.Kind, r.Unrelated})
	}
	return nil, ErrUnknownKind
}

// ParseMedicalResponse 解析模型原始输出
// 允许首尾空白与单层 Markdown 代码块；非对象、type 缺失或未知时返回错误
func ParseMedicalResponse(raw string) (*MedicalResponse, error) {
	body := stripCodeFence(raw)
	if !strings.HasPrefix(body, "{") {
		return nil, ErrNotJSONObject
	}

	var w wireResponse
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	switch ResponseKind(strings.ToLower(strings.TrimSpace(string(w.Type)))) {
	case KindMatched:
		var info wireAdditionalInfo
		if w.AdditionalInfo != nil {
			info = *w.AdditionalInfo
		}
		return NewMatchedResponse(Matched{
			Disease:     string(w.Disease),
			Symptoms:    w.Symptoms,
			Suggestions: w.Suggestions,
			NeedDoctor:  bool(w.NeedDoctor),
			Urgency:     string(w.Urgency),
			AdditionalInfo: AdditionalInfo{
				IncubationPeriod: string(info.IncubationPeriod),
				Transmission:     string(info.Transmission),
				Prevention:       info.Prevention,
			},
		}), nil
	case KindUnmatched:
		return NewUnmatchedResponse(Unmatched{
			Message:              string(w.Message),
			AdditionalInfoNeeded: w.AdditionalInfoNeeded,
			Suggestions:          w.Suggestions,
			NeedDoctor:           bool(w.NeedDoctor),
			Urgency:              string(w.Urgency),
			PossibleConditions:   w.PossibleConditions,
		}), nil
	case KindUnrelated:
		return NewUnrelatedResponse(Unrelated{
			Message:     string(w.Message),
			Suggestions: w.Suggestions,
		}), nil
	default:
		return nil, ErrUnknownKind
	}
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(s[3:], "```")
	// 去掉语言标记行，例如 ```json
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.Contains(s[:nl], "{") {
		s = s[nl+1:]
	}
	return strings.TrimSpace(s)
}

func orDefault(s, fallback string) string {
	if t := strings.TrimSpace(s); t != "" {
		return t
	}
	return fallback
}

func listOrDefault(items []string, fallback string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if t := strings.TrimSpace(it); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return []string{fallback}
	}
	return out
}

// wireResponse 模型输出的宽松解码结构，字段类型不符时按缺失处理
type wireResponse struct {
	Type                 looseString         `json:"type"`
	Disease              looseString         `json:"disease"`
	Symptoms             looseList           `json:"symptoms"`
	Suggestions          looseList           `json:"suggestions"`
	NeedDoctor           looseBool           `json:"need_doctor"`
	Urgency              looseString         `json:"urgency"`
	AdditionalInfo       *wireAdditionalInfo `json:"additional_info"`
	Message              looseString         `json:"message"`
	AdditionalInfoNeeded looseList           `json:"additional_info_needed"`
	PossibleConditions   looseList           `json:"possible_conditions"`
}

type wireAdditionalInfo struct {
	IncubationPeriod looseString `json:"incubation_period"`
	Transmission     looseString `json:"transmission"`
	Prevention       looseList   `json:"prevention"`
}

// UnmarshalJSON 非对象时视为缺失
func (w *wireAdditionalInfo) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || b[0] != '{' {
		*w = wireAdditionalInfo{}
		return nil
	}
	type alias wireAdditionalInfo
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*w = wireAdditionalInfo(a)
	return nil
}

type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	*s = looseString(scalarText(b))
	return nil
}

// looseList 接受字符串数组或单个字符串
type looseList []string

func (l *looseList) UnmarshalJSON(b []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		if t := scalarText(b); t != "" {
			*l = looseList{t}
		} else {
			*l = nil
		}
		return nil
	}
	out := make(looseList, 0, len(items))
	for _, it := range items {
		if t := scalarText(it); t != "" {
			out = append(out, t)
		}
	}
	*l = out
	return nil
}

// looseBool 接受 true/false 或 "true"/"false"
type looseBool bool

func (v *looseBool) UnmarshalJSON(b []byte) error {
	parsed, err := strconv.ParseBool(scalarText(b))
	*v = looseBool(err == nil && parsed)
	return nil
}

// scalarText 将 JSON 标量转换为文本，对象、数组与 null 返回空串
func scalarText(b []byte) string {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}
