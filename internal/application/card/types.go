package card

import "encoding/json"

// Component Flex 组件（box / text / separator / button）
type Component interface {
	flexType() string
}

// Bubble 卡片根节点
type Bubble struct {
	Header *Box `json:"header,omitempty"`
	Body   *Box `json:"body,omitempty"`
	Footer *Box `json:"footer,omitempty"`
}

// Box 纵向容器
type Box struct {
	Layout          string      `json:"layout"`
	Contents        []Component `json:"contents"`
	BackgroundColor string      `json:"backgroundColor,omitempty"`
	PaddingAll      string      `json:"paddingAll,omitempty"`
	Spacing         string      `json:"spacing,omitempty"`
	Margin          string      `json:"margin,omitempty"`
}

// Text 文本叶子
type Text struct {
	Text   string `json:"text"`
	Weight string `json:"weight,omitempty"`
	Color  string `json:"color,omitempty"`
	Size   string `json:"size,omitempty"`
	Align  string `json:"align,omitempty"`
	Margin string `json:"margin,omitempty"`
	Wrap   bool   `json:"wrap,omitempty"`
}

// Separator 分隔线
type Separator struct {
	Margin string `json:"margin,omitempty"`
}

// Button 按钮
type Button struct {
	Action Action `json:"action"`
	Style  string `json:"style,omitempty"`
	Color  string `json:"color,omitempty"`
	Height string `json:"height,omitempty"`
	Margin string `json:"margin,omitempty"`
}

// Action 按钮动作，目前只用 uri
type Action struct {
	Label string `json:"label"`
	URI   string `json:"uri"`
}

func (*Box) flexType() string       { return "box" }
func (*Text) flexType() string      { return "text" }
func (*Separator) flexType() string { return "separator" }
func (*Button) flexType() string    { return "button" }

// typed 在序列化结果前补上 "type" 字段
func typed(kind string, v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	m["type"] = json.RawMessage(`"` + kind + `"`)
	return json.Marshal(m)
}

// MarshalJSON 输出 LINE Flex bubble 格式
func (b *Bubble) MarshalJSON() ([]byte, error) {
	type plain Bubble
	return typed("bubble", (*plain)(b))
}

func (b *Box) MarshalJSON() ([]byte, error) {
	type plain Box
	return typed("box", (*plain)(b))
}

func (t *Text) MarshalJSON() ([]byte, error) {
	type plain Text
	return typed("text", (*plain)(t))
}

func (s *Separator) MarshalJSON() ([]byte, error) {
	type plain Separator
	return typed("separator", (*plain)(s))
}

func (b *Button) MarshalJSON() ([]byte, error) {
	type plain Button
	return typed("button", (*plain)(b))
}

func (a Action) MarshalJSON() ([]byte, error) {
	type plain Action
	return typed("uri", plain(a))
}

// JSON 序列化为 Flex JSON
func (b *Bubble) JSON() ([]byte, error) {
	return json.Marshal(b)
}

// Walk 深度优先遍历 bubble 下的所有组件
func (b *Bubble) Walk(fn func(Component)) {
	for _, box := range []*Box{b.Header, b.Body, b.Footer} {
		if box != nil {
			walk(box, fn)
		}
	}
}

func walk(c Component, fn func(Component)) {
	fn(c)
	if box, ok := c.(*Box); ok {
		for _, child := range box.Contents {
			walk(child, fn)
		}
	}
}

// Texts 按出现顺序返回所有文本内容
func (b *Bubble) Texts() []string {
	var out []string
	b.Walk(func(c Component) {
		if t, ok := c.(*Text); ok {
			out = append(out, t.Text)
		}
	})
	return out
}
