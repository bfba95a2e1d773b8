package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AmirTlinov/browser-mcp/internal/browser"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// ── form ──

// FormTool implements the macro cookbook's "fill a form in one call"
// contract (login_basic, §4.3): a set of {selector: value} pairs, filled in
// no defined order (they arrive as a map), with optional username/password
// key-candidate fallback for
// login forms whose field names vary across sites.
type FormTool struct {
	session *browser.Session
}

func NewFormTool(d Deps) *FormTool { return &FormTool{session: d.Session} }

func (t *FormTool) Name() string        { return "form" }
func (t *FormTool) Description() string { return "Fills multiple form fields in one call, then optionally submits." }

func (t *FormTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "fields", Type: "object", Description: "map of selector -> text value"},
		tool.SchemaParam{Name: "username", Type: "string", Description: "username value, tried against username_key_candidates"},
		tool.SchemaParam{Name: "password", Type: "string", Description: "password value, tried against password_key_candidates"},
		tool.SchemaParam{Name: "username_key_candidates", Type: "array", Description: "selectors to try for the username field", Items: rawArrayItems("string")},
		tool.SchemaParam{Name: "password_key_candidates", Type: "array", Description: "selectors to try for the password field", Items: rawArrayItems("string")},
		tool.SchemaParam{Name: "submit_selector", Type: "string", Description: "selector to click after filling"},
		tool.SchemaParam{Name: "tab_id", Type: "string", Description: "target tab, defaults to the active tab"},
	)
}

func (t *FormTool) Init(ctx context.Context) error { return noInit(ctx) }
func (t *FormTool) Close() error                    { return noClose() }

type formArgs struct {
	Fields                 map[string]string `json:"fields"`
	Username               string            `json:"username"`
	Password               string            `json:"password"`
	UsernameKeyCandidates  []string          `json:"username_key_candidates"`
	PasswordKeyCandidates  []string          `json:"password_key_candidates"`
	SubmitSelector         string            `json:"submit_selector"`
	TabID                  string            `json:"tab_id"`
}

func (t *FormTool) Execute(_ context.Context, raw json.RawMessage) (tool.Result, error) {
	var a formArgs
	if err := decodeArgs(raw, &a); err != nil {
		return errResult(err)
	}

	tabCtx, tabID, err := ensureTab(t.session, a.TabID)
	if err != nil {
		return errResult(err)
	}

	filled := 0
	for sel, val := range a.Fields {
		if err := t.session.TypeText(tabCtx, sel, val, true); err != nil {
			return tool.Errorf("form: field %q: %v", sel, err), nil
		}
		filled++
	}

	if a.Username != "" {
		if err := t.fillFirstMatch(tabCtx, a.UsernameKeyCandidates, a.Username); err != nil {
			return errResult(err)
		}
		filled++
	}
	if a.Password != "" {
		if err := t.fillFirstMatch(tabCtx, a.PasswordKeyCandidates, a.Password); err != nil {
			return errResult(err)
		}
		filled++
	}

	if a.SubmitSelector != "" {
		if err := t.session.ClickSelector(tabCtx, a.SubmitSelector, false); err != nil {
			return errResult(err)
		}
	}

	return tool.JSONResult(map[string]any{"ok": true, "tab_id": tabID, "fields_filled": filled}), nil
}

func (t *FormTool) fillFirstMatch(tabCtx context.Context, candidates []string, value string) error {
	var lastErr error
	for _, sel := range candidates {
		if _, _, found, err := t.session.Locate(tabCtx, "document.querySelector("+quoteJS(sel)+")"); err == nil && found {
			return t.session.TypeText(tabCtx, sel, value, true)
		} else if err != nil {
			lastErr = err
		}
	}
	if lastErr != nil {
		return lastErr
	}
	return fmt.Errorf("form: no candidate selector matched (%d tried)", len(candidates))
}

func rawArrayItems(typ string) json.RawMessage {
	data, _ := json.Marshal(map[string]any{"type": typ})
	return data
}
