package config

import (
	"strings"
	"testing"
)

func TestLoadPopulatesAllFields(t *testing.T) {
	doc := `{
		"keyword_map": {"si": "if"},
		"function_map": {"escribir": "print"},
		"operator_map": {"y": "&&"},
		"start_rule": "program"
	}`
	cfg, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.KeywordMap["si"] != "if" {
		t.Errorf("KeywordMap[si] = %q, want if", cfg.KeywordMap["si"])
	}
	if cfg.FunctionMap["escribir"] != "print" {
		t.Errorf("FunctionMap[escribir] = %q, want print", cfg.FunctionMap["escribir"])
	}
	if cfg.OperatorMap["y"] != "&&" {
		t.Errorf("OperatorMap[y] = %q, want &&", cfg.OperatorMap["y"])
	}
	if cfg.StartRule != "program" {
		t.Errorf("StartRule = %q, want program", cfg.StartRule)
	}
}

func TestLoadEmptyDocumentIsZeroConfig(t *testing.T) {
	cfg, err := Load(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.KeywordMap) != 0 || cfg.StartRule != "" {
		t.Errorf("expected zero Config, got %+v", cfg)
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	_, err := Load(strings.NewReader("{not json"))
	if err == nil {
		t.Fatal("Load succeeded on malformed JSON, want error")
	}
}
