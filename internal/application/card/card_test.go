package card

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"symptom-advisor-bot/internal/domain/entity"
)

const diabetesJSON = `{"type":"matched","disease":"糖尿病","symptoms":["多尿","多飲"],"suggestions":["就醫"],"need_doctor":true,"urgency":"medium","additional_info":{"incubation_period":"未知","transmission":"未知","prevention":["控制飲食"]}}`

func headerText(t *testing.T, b *Bubble) string {
	t.Helper()
	if b == nil || b.Header == nil || len(b.Header.Contents) == 0 {
		t.Fatal("bubble has no header")
	}
	return b.Header.Contents[0].(*Text).Text
}

func bodyTexts(b *Bubble) []string {
	var out []string
	walk(b.Body, func(c Component) {
		if t, ok := c.(*Text); ok {
			out = append(out, t.Text)
		}
	})
	return out
}

func TestConvertDiabetesScenario(t *testing.T) {
	b := Convert(diabetesJSON)
	if b == nil {
		t.Fatal("Convert returned nil")
	}
	if got := headerText(t, b); got != "分析結果" {
		t.Errorf("header = %q", got)
	}
	if b.Header.BackgroundColor != colorMatched {
		t.Errorf("header color = %q", b.Header.BackgroundColor)
	}

	texts := bodyTexts(b)
	want := []string{
		"可能疾病", "糖尿病",
		"常見症狀", "多尿、多飲",
		"建議事項", "就醫",
		"潛伏期", "未知",
		"傳播方式", "未知",
		"預防方法", "控制飲食",
	}
	if !reflect.DeepEqual(texts, want) {
		t.Errorf("body texts =\n%v\nwant\n%v", texts, want)
	}

	if b.Footer == nil {
		t.Fatal("matched card must have a footer")
	}
	footer := strings.Join(b.Texts()[len(texts)+1:], "|")
	if !strings.Contains(footer, "建議盡快就醫檢查") || !strings.Contains(footer, "緊急程度：中") {
		t.Errorf("footer = %q", footer)
	}
}

func TestConvertInvalid(t *testing.T) {
	for _, raw := range []string{"not json", "", "[1,2]", `{"type":"other"}`, `{"disease":"x"}`, `"matched"`} {
		if b := Convert(raw); b != nil {
			t.Errorf("Convert(%q) = %+v, want nil", raw, b)
		}
	}
}

func TestConvertEmptyDiseaseUsesFallback(t *testing.T) {
	b := Convert(`{"type":"matched","disease":"","symptoms":[],"suggestions":[]}`)
	if b == nil {
		t.Fatal("Convert returned nil")
	}
	texts := bodyTexts(b)
	if texts[1] != entity.FallbackDisease {
		t.Errorf("disease = %q, want %q", texts[1], entity.FallbackDisease)
	}
	if texts[3] != entity.FallbackSymptom || texts[5] != entity.FallbackSuggestion {
		t.Errorf("list fallbacks = %q, %q", texts[3], texts[5])
	}
	footer := b.Texts()[len(texts)+1:]
	if !strings.Contains(strings.Join(footer, ""), "如症狀持續或加重") {
		t.Errorf("need_doctor=false footer = %v", footer)
	}
}

func TestConvertIsPure(t *testing.T) {
	a, b := Convert(diabetesJSON), Convert(diabetesJSON)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("Convert is not deterministic")
	}
	ja, _ := a.JSON()
	jb, _ := b.JSON()
	if string(ja) != string(jb) {
		t.Fatal("JSON output differs")
	}
}

func TestConvertOtherVariants(t *testing.T) {
	tests := []struct {
		raw, title, color, message string
	}{
		{`{"type":"unmatched","message":"請描述發燒天數"}`, "需要更多資訊", colorUnmatched, "請描述發燒天數"},
		{`{"type":"unrelated"}`, "一般對話", colorUnrelated, entity.FallbackUnrelatedMessage},
	}
	for _, tt := range tests {
		b := Convert(tt.raw)
		if b == nil {
			t.Fatalf("Convert(%s) = nil", tt.raw)
		}
		if got := headerText(t, b); got != tt.title {
			t.Errorf("header = %q, want %q", got, tt.title)
		}
		if b.Header.BackgroundColor != tt.color {
			t.Errorf("color = %q", b.Header.BackgroundColor)
		}
		if texts := bodyTexts(b); len(texts) != 1 || texts[0] != tt.message {
			t.Errorf("body = %v", texts)
		}
		if b.Footer != nil {
			t.Error("only matched cards carry a footer")
		}
	}
}

func TestBubbleJSONShape(t *testing.T) {
	raw, err := Convert(diabetesJSON).JSON()
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	if m["type"] != "bubble" {
		t.Errorf("type = %v", m["type"])
	}
	hdr := m["header"].(map[string]any)
	if hdr["type"] != "box" || hdr["layout"] != "vertical" {
		t.Errorf("header = %v", hdr)
	}
	first := hdr["contents"].([]any)[0].(map[string]any)
	if first["type"] != "text" || first["text"] != "分析結果" {
		t.Errorf("header text = %v", first)
	}
	if !strings.Contains(string(raw), `"type":"separator"`) {
		t.Error("separator missing from body")
	}
}

func TestUrgencyLabel(t *testing.T) {
	for in, want := range map[string]string{"high": "高", "Medium": "中", "low": "低", "未知": "未知"} {
		if got := UrgencyLabel(in); got != want {
			t.Errorf("UrgencyLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAltText(t *testing.T) {
	_, resp := ConvertResponse(diabetesJSON)
	if got := AltText(resp); got != "分析結果：糖尿病" {
		t.Errorf("AltText = %q", got)
	}
	long := entity.NewUnmatchedResponse(entity.Unmatched{Message: strings.Repeat("咳", 150)})
	if got := []rune(AltText(long)); len(got) != 101 {
		t.Errorf("AltText length = %d", len(got))
	}
	if AltText(nil) == "" {
		t.Error("AltText(nil) is empty")
	}
}

func TestBuildClinicCard(t *testing.T) {
	b := BuildClinicCard(ClinicSearch{Address: "台北市信義區", SearchURL: "https://maps.example/search"})
	if headerText(t, b) != "附近診所" {
		t.Errorf("header = %q", headerText(t, b))
	}
	if b.Footer == nil {
		t.Fatal("missing button footer")
	}
	btn := b.Footer.Contents[0].(*Button)
	if btn.Action.URI != "https://maps.example/search" {
		t.Errorf("uri = %q", btn.Action.URI)
	}
	raw, _ := b.JSON()
	if !strings.Contains(string(raw), `"type":"uri"`) {
		t.Errorf("action type missing: %s", raw)
	}

	if b := BuildClinicCard(ClinicSearch{}); b.Footer != nil || bodyTexts(b)[1] != "您分享的位置" {
		t.Errorf("empty search card = %+v", b)
	}
}
