package entity

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestParseMedicalResponseRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"plain text", "not json", ErrNotJSONObject},
		{"array", `["matched"]`, ErrNotJSONObject},
		{"missing type", `{"disease":"流感"}`, ErrUnknownKind},
		{"unknown type", `{"type":"diagnosis"}`, ErrUnknownKind},
		{"null type", `{"type":null}`, ErrUnknownKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ParseMedicalResponse(tt.raw)
			if resp != nil {
				t.Fatalf("expected nil response, got %+v", resp)
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := ParseMedicalResponse(`{"type":"matched",`); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

func TestParseMatchedDefaults(t *testing.T) {
	resp, err := ParseMedicalResponse(`{"type":"matched","disease":"","symptoms":[],"suggestions":[]}`)
	if err != nil {
		t.Fatalf("ParseMedicalResponse: %v", err)
	}
	if resp.Kind != KindMatched || resp.Matched == nil {
		t.Fatalf("kind = %s", resp.Kind)
	}
	m := resp.Matched
	if m.Disease != FallbackDisease {
		t.Errorf("disease = %q", m.Disease)
	}
	if !reflect.DeepEqual(m.Symptoms, []string{FallbackSymptom}) {
		t.Errorf("symptoms = %v", m.Symptoms)
	}
	if !reflect.DeepEqual(m.Suggestions, []string{FallbackSuggestion}) {
		t.Errorf("suggestions = %v", m.Suggestions)
	}
	if m.Urgency != FallbackUrgency {
		t.Errorf("urgency = %q", m.Urgency)
	}
	info := m.AdditionalInfo
	if info.IncubationPeriod != FallbackInfo || info.Transmission != FallbackInfo {
		t.Errorf("additional info = %+v", info)
	}
	if !reflect.DeepEqual(info.Prevention, []string{FallbackInfo}) {
		t.Errorf("prevention = %v", info.Prevention)
	}
}

func TestParseToleratesLooseFields(t *testing.T) {
	raw := "```json\n" + `{
		"type": "Matched",
		"disease": " 流感 ",
		"symptoms": "發燒",
		"suggestions": ["多休息", "  ", 3],
		"need_doctor": "true",
		"urgency": null,
		"additional_info": "none"
	}` + "\n```"

	resp, err := ParseMedicalResponse(raw)
	if err != nil {
		t.Fatalf("ParseMedicalResponse: %v", err)
	}
	m := resp.Matched
	if m.Disease != "流感" {
		t.Errorf("disease = %q", m.Disease)
	}
	if !reflect.DeepEqual(m.Symptoms, []string{"發燒"}) {
		t.Errorf("symptoms = %v", m.Symptoms)
	}
	if !reflect.DeepEqual(m.Suggestions, []string{"多休息", "3"}) {
		t.Errorf("suggestions = %v", m.Suggestions)
	}
	if !m.NeedDoctor {
		t.Error("need_doctor should be true")
	}
	if m.Urgency != FallbackUrgency {
		t.Errorf("urgency = %q", m.Urgency)
	}
	if m.AdditionalInfo.Transmission != FallbackInfo {
		t.Errorf("transmission = %q", m.AdditionalInfo.Transmission)
	}
}

func TestParseUnmatchedAndUnrelated(t *testing.T) {
	resp, err := ParseMedicalResponse(`{"type":"unmatched","possible_conditions":["感冒"]}`)
	if err != nil {
		t.Fatal(err)
	}
	u := resp.Unmatched
	if u.Message != FallbackUnmatchedMessage {
		t.Errorf("message = %q", u.Message)
	}
	if !reflect.DeepEqual(u.AdditionalInfoNeeded, []string{FallbackAdditionalInfoNeeded}) {
		t.Errorf("additional_info_needed = %v", u.AdditionalInfoNeeded)
	}
	if !reflect.DeepEqual(u.PossibleConditions, []string{"感冒"}) {
		t.Errorf("possible_conditions = %v", u.PossibleConditions)
	}

	resp, err = ParseMedicalResponse(`{"type":"unrelated","message":"  "}`)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Unrelated.Message != FallbackUnrelatedMessage {
		t.Errorf("message = %q", resp.Unrelated.Message)
	}
	if !reflect.DeepEqual(resp.Suggestions(), []string{FallbackSuggestion}) {
		t.Errorf("suggestions = %v", resp.Suggestions())
	}
}

func TestMedicalResponseMarshalFlat(t *testing.T) {
	resp := NewUnrelatedResponse(Unrelated{Message: "你好"})
	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	if m["type"] != "unrelated" || m["message"] != "你好" {
		t.Errorf("marshal = %s", b)
	}

	again, err := ParseMedicalResponse(string(b))
	if err != nil || !reflect.DeepEqual(again, resp) {
		t.Errorf("reparse = %+v, %v", again, err)
	}
}
