package builtin

import (
	"context"
	"encoding/json"

	"github.com/AmirTlinov/browser-mcp/internal/browser"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// ── cookies ──

type CookiesTool struct {
	session *browser.Session
}

func NewCookiesTool(d Deps) *CookiesTool { return &CookiesTool{session: d.Session} }

func (t *CookiesTool) Name() string        { return "cookies" }
func (t *CookiesTool) Description() string { return "Reads, sets, or clears cookies for the active page." }

func (t *CookiesTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "action", Type: "string", Description: "get|set|clear", Required: true, Enum: []string{"get", "set", "clear"}},
		tool.SchemaParam{Name: "url", Type: "string", Description: "URL scope for set"},
		tool.SchemaParam{Name: "name", Type: "string", Description: "cookie name, for set"},
		tool.SchemaParam{Name: "value", Type: "string", Description: "cookie value, for set"},
		tool.SchemaParam{Name: "domain", Type: "string", Description: "cookie domain, for set"},
		tool.SchemaParam{Name: "path", Type: "string", Description: "cookie path, for set"},
		tool.SchemaParam{Name: "secure", Type: "boolean", Description: "secure flag, for set"},
		tool.SchemaParam{Name: "http_only", Type: "boolean", Description: "httpOnly flag, for set"},
		tool.SchemaParam{Name: "same_site", Type: "string", Description: "Strict|Lax|None, for set"},
		tool.SchemaParam{Name: "tab_id", Type: "string", Description: "target tab, defaults to the active tab"},
	)
}

func (t *CookiesTool) Init(ctx context.Context) error { return noInit(ctx) }
func (t *CookiesTool) Close() error                    { return noClose() }

type cookiesArgs struct {
	Action   string `json:"action"`
	URL      string `json:"url"`
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	Secure   bool   `json:"secure"`
	HTTPOnly bool   `json:"http_only"`
	SameSite string `json:"same_site"`
	TabID    string `json:"tab_id"`
}

func (t *CookiesTool) Execute(_ context.Context, raw json.RawMessage) (tool.Result, error) {
	var a cookiesArgs
	if err := decodeArgs(raw, &a); err != nil {
		return errResult(err)
	}

	tabCtx, _, err := ensureTab(t.session, a.TabID)
	if err != nil {
		return errResult(err)
	}

	switch a.Action {
	case "get":
		cookies, err := t.session.GetCookies(tabCtx)
		if err != nil {
			return tool.Errorf("cookies: %v", err), nil
		}
		return tool.JSONResult(map[string]any{"ok": true, "cookies": cookies}), nil

	case "set":
		if a.Name == "" {
			return tool.Errorf("cookies: name is required for set"), nil
		}
		c := browser.Cookie{
			Name: a.Name, Value: a.Value, Domain: a.Domain, Path: orDefault(a.Path, "/"),
			Secure: a.Secure, HTTPOnly: a.HTTPOnly, SameSite: a.SameSite,
		}
		if err := t.session.SetCookie(tabCtx, a.URL, c); err != nil {
			return tool.Errorf("cookies: %v", err), nil
		}
		return tool.JSONResult(map[string]any{"ok": true}), nil

	case "clear":
		if err := t.session.ClearCookies(tabCtx); err != nil {
			return tool.Errorf("cookies: %v", err), nil
		}
		return tool.JSONResult(map[string]any{"ok": true}), nil

	default:
		return tool.Errorf("cookies: action must be get, set, or clear"), nil
	}
}
