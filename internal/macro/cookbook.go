package macro

import (
	"fmt"
	"strings"
)

// overlayDismissJS mirrors the center-of-viewport close>reject>accept
// scoring used by flow.Engine.dismissOverlay directly, so dismiss_overlays
// (the macro) and the engine's own overlay recovery behave identically.
const overlayDismissJS = `(() => {
	const weight = (text) => {
		const t = (text || '').trim().toLowerCase();
		if (/close|dismiss|×|x/.test(t)) return 3;
		if (/reject|no thanks|decline/.test(t)) return 2;
		if (/accept|agree|ok|got it/.test(t)) return 1;
		return 0;
	};
	const cx = window.innerWidth / 2, cy = window.innerHeight / 2;
	const scored = [];
	for (const el of document.elementsFromPoint(cx, cy)) {
		const w = weight(el.innerText || el.getAttribute('aria-label'));
		if (w > 0) scored.push([w, el]);
	}
	scored.sort((a, b) => b[0] - a[0]);
	if (scored.length) { scored[0][1].click(); return true; }
	return false;
})()`

func genTraceThenScreenshot(args map[string]any, mem MemoryReader, depth int) (Plan, error) {
	kind := stringArg(args, "kind", "harLite")
	return Plan{Steps: []map[string]any{
		step("fetch", map[string]any{"action": "net", "mode": kind, "store": true}),
		step("screenshot", map[string]any{}),
	}}, nil
}

func genDismissOverlays(args map[string]any, mem MemoryReader, depth int) (Plan, error) {
	return Plan{Steps: []map[string]any{
		optionalStep("js", map[string]any{"expression": overlayDismissJS}),
	}}, nil
}

// genLoginBasic implements login_basic: a single form.fill with
// deterministic candidate keys and submit:true.
func genLoginBasic(args map[string]any, mem MemoryReader, depth int) (Plan, error) {
	username, _ := args["username"].(string)
	password, _ := args["password"].(string)
	if username == "" || password == "" {
		return Plan{}, fmt.Errorf("macro: login_basic requires username and password")
	}
	userKeys := stringSliceArg(args, "username_key_candidates", []string{"username", "email", "login", "user"})
	passKeys := stringSliceArg(args, "password_key_candidates", []string{"password", "pass", "pwd"})

	return Plan{
		Note: fmt.Sprintf("macro login_basic(username=%s, password=***)", username),
		Steps: []map[string]any{
			step("form", map[string]any{
				"action":                    "fill",
				"username":                  username,
				"password":                  password,
				"username_key_candidates":   userKeys,
				"password_key_candidates":   passKeys,
				"submit":                    true,
			}),
		},
	}, nil
}

// genScrollUntilVisible implements scroll_until_visible: repeat(until, [scroll]).
func genScrollUntilVisible(args map[string]any, mem MemoryReader, depth int) (Plan, error) {
	until := map[string]any{}
	if sel, ok := args["selector"].(string); ok && sel != "" {
		until["js"] = fmt.Sprintf("!!document.querySelector(%q)", sel)
	} else if text, ok := args["text"].(string); ok && text != "" {
		until["js"] = fmt.Sprintf("document.body.innerText.includes(%q)", text)
	} else {
		return Plan{}, fmt.Errorf("macro: scroll_until_visible requires selector or text")
	}

	scrollArgs, _ := args["scroll"].(map[string]any)
	if scrollArgs == nil {
		scrollArgs = map[string]any{"dy": 800}
	}

	return Plan{Steps: []map[string]any{
		step("repeat", map[string]any{
			"max_iters": intArgOr(args, "max_iters", 20),
			"until":     until,
			"steps":     []any{step("scroll", scrollArgs)},
			"timeout_s": intArgOr(args, "timeout_s", 30),
		}),
	}}, nil
}

// genScrollToEnd implements scroll_to_end: repeat(until=scrollEnd|customJS).
func genScrollToEnd(args map[string]any, mem MemoryReader, depth int) (Plan, error) {
	untilJS := "window.scrollY + window.innerHeight >= document.body.scrollHeight - 2"
	if custom, ok := args["until_js"].(string); ok && custom != "" {
		untilJS = custom
	}
	scrollArgs, _ := args["scroll"].(map[string]any)
	if scrollArgs == nil {
		scrollArgs = map[string]any{"dy": 1200}
	}
	settleMS := intArgOr(args, "settle_ms", 300)

	return Plan{Steps: []map[string]any{
		step("repeat", map[string]any{
			"max_iters":     intArgOr(args, "max_iters", 30),
			"until":         map[string]any{"js": untilJS},
			"steps":         []any{step("scroll", scrollArgs)},
			"backoff_s":     float64(settleMS) / 1000.0,
		}),
	}}, nil
}

// genRetryClick implements retry_click: repeat(until, [dismiss_overlays?, click{optional:true}]).
func genRetryClick(args map[string]any, mem MemoryReader, depth int) (Plan, error) {
	clickArgs, _ := args["click"].(map[string]any)
	if clickArgs == nil {
		return Plan{}, fmt.Errorf("macro: retry_click requires click args")
	}
	untilRaw, _ := args["until"].(map[string]any)

	var body []any
	if dismiss, _ := args["dismiss_overlays"].(bool); dismiss {
		body = append(body, optionalStep("js", map[string]any{"expression": overlayDismissJS}))
	}
	clickStep := step("click", clickArgs)
	clickStep["optional"] = true
	body = append(body, clickStep)

	return Plan{Steps: []map[string]any{
		step("repeat", map[string]any{
			"max_iters": intArgOr(args, "max_iters", 10),
			"until":     untilRaw,
			"steps":     body,
			"timeout_s": intArgOr(args, "timeout_s", 20),
		}),
	}}, nil
}

// genPaginateNext implements paginate_next: repeat(steps=[dismiss?, click{optional:true}, wait?], until=nextDisabled).
func genPaginateNext(args map[string]any, mem MemoryReader, depth int) (Plan, error) {
	nextSel, _ := args["next_selector"].(string)
	if nextSel == "" {
		return Plan{}, fmt.Errorf("macro: paginate_next requires next_selector")
	}
	untilJS := fmt.Sprintf(`(() => { const el = document.querySelector(%q); return !el || el.disabled || el.getAttribute('aria-disabled') === 'true'; })()`, nextSel)

	var body []any
	if dismiss, _ := args["dismiss_overlays"].(bool); dismiss {
		body = append(body, optionalStep("js", map[string]any{"expression": overlayDismissJS}))
	}
	clickArgs, _ := args["click"].(map[string]any)
	if clickArgs == nil {
		clickArgs = map[string]any{"selector": nextSel}
	}
	clickStep := step("click", clickArgs)
	clickStep["optional"] = true
	body = append(body, clickStep)
	if waitArgs, ok := args["wait"].(map[string]any); ok {
		body = append(body, step("wait", waitArgs))
	}

	return Plan{Steps: []map[string]any{
		step("repeat", map[string]any{
			"max_iters": intArgOr(args, "max_iters", 20),
			"until":     map[string]any{"js": untilJS},
			"steps":     body,
			"backoff_s": float64(intArgOr(args, "settle_ms", 200)) / 1000.0,
		}),
	}}, nil
}

// genAutoExpand implements auto_expand: repeat(until=count==0 probe, steps=[js clickBatch, wait?]).
func genAutoExpand(args map[string]any, mem MemoryReader, depth int) (Plan, error) {
	phrases := stringSliceArg(args, "phrases", []string{"show more", "load more", "see more", "read more"})
	selectors := stringSliceArg(args, "selectors", nil)
	clickLimit := intArgOr(args, "click_limit", 5)

	selJS := "[]"
	if len(selectors) > 0 {
		parts := make([]string, len(selectors))
		for i, s := range selectors {
			parts[i] = fmt.Sprintf("%q", s)
		}
		selJS = "[" + strings.Join(parts, ",") + "]"
	}
	phraseJS := make([]string, len(phrases))
	for i, p := range phrases {
		phraseJS[i] = fmt.Sprintf("%q", strings.ToLower(p))
	}
	phraseArr := "[" + strings.Join(phraseJS, ",") + "]"

	clickBatchJS := fmt.Sprintf(`(() => {
		const phrases = %s;
		const selectors = %s;
		const limit = %d;
		let clicked = 0;
		const candidates = new Set();
		for (const sel of selectors) document.querySelectorAll(sel).forEach(el => candidates.add(el));
		document.querySelectorAll('button,a,[role=button]').forEach(el => {
			const t = (el.innerText || '').trim().toLowerCase();
			if (phrases.some(p => t.includes(p))) candidates.add(el);
		});
		for (const el of candidates) {
			if (clicked >= limit) break;
			el.click();
			clicked++;
		}
		return clicked;
	})()`, phraseArr, selJS, clickLimit)

	countProbeJS := fmt.Sprintf(`(() => {
		const phrases = %s;
		let count = 0;
		document.querySelectorAll('button,a,[role=button]').forEach(el => {
			const t = (el.innerText || '').trim().toLowerCase();
			if (phrases.some(p => t.includes(p))) count++;
		});
		return count === 0;
	})()`, phraseArr)

	body := []any{step("js", map[string]any{"expression": clickBatchJS, "export_as": "__clicked"})}
	if waitArgs, ok := args["wait"].(map[string]any); ok {
		body = append(body, step("wait", waitArgs))
	}

	return Plan{Steps: []map[string]any{
		step("repeat", map[string]any{
			"max_iters": intArgOr(args, "max_iters", 10),
			"until":     map[string]any{"js": countProbeJS},
			"steps":     body,
			"backoff_s": float64(intArgOr(args, "settle_ms", 300)) / 1000.0,
		}),
	}}, nil
}

// genAutoExpandScrollExtract implements auto_expand_scroll_extract:
// navigate? + auto_expand + scroll_to_end + optional error-retry repeat +
// extract_content.
func genAutoExpandScrollExtract(args map[string]any, mem MemoryReader, depth int) (Plan, error) {
	var steps []map[string]any

	if url, ok := args["url"].(string); ok && url != "" {
		navArgs := map[string]any{"url": url}
		if wait, ok := args["wait"].(string); ok {
			navArgs["wait"] = wait
		}
		steps = append(steps, step("navigate", navArgs))
	}

	expandArgs, _ := args["expand"].(map[string]any)
	expandPlan, err := expandDepth("auto_expand", expandArgs, mem, depth)
	if err != nil {
		return Plan{}, err
	}
	steps = append(steps, expandPlan.Steps...)

	scrollArgs, _ := args["scroll"].(map[string]any)
	scrollPlan, err := expandDepth("scroll_to_end", scrollArgs, mem, depth)
	if err != nil {
		return Plan{}, err
	}
	steps = append(steps, scrollPlan.Steps...)

	if retryOnError, _ := args["retry_on_error"].(bool); retryOnError {
		errorTexts := stringSliceArg(args, "error_texts", []string{"something went wrong", "error occurred"})
		phraseJS := make([]string, len(errorTexts))
		for i, p := range errorTexts {
			phraseJS[i] = fmt.Sprintf("%q", strings.ToLower(p))
		}
		goneJS := fmt.Sprintf(`(() => { const p=[%s]; const t=document.body.innerText.toLowerCase(); return !p.some(x=>t.includes(x)); })()`, strings.Join(phraseJS, ","))

		var retrySteps []any
		if rs, ok := args["retry_steps"].([]any); ok {
			retrySteps = rs
		}
		steps = append(steps, step("repeat", map[string]any{
			"max_iters": intArgOr(args, "max_error_retries", 3),
			"until":     map[string]any{"js": goneJS},
			"steps":     retrySteps,
		}))
	}

	extractArgs, _ := args["extract"].(map[string]any)
	if extractArgs == nil {
		return Plan{}, fmt.Errorf("macro: auto_expand_scroll_extract requires extract args")
	}
	steps = append(steps, step("extract_content", extractArgs))

	return Plan{Steps: steps}, nil
}

// genGotoIfNeeded implements goto_if_needed: when(if={url:...}, then=[], else=[navigate]).
func genGotoIfNeeded(args map[string]any, mem MemoryReader, depth int) (Plan, error) {
	urlContains, _ := args["url_contains"].(string)
	url, _ := args["url"].(string)
	if urlContains == "" || url == "" {
		return Plan{}, fmt.Errorf("macro: goto_if_needed requires url_contains and url")
	}
	navArgs := map[string]any{"url": url}
	if wait, ok := args["wait"].(string); ok {
		navArgs["wait"] = wait
	}
	return Plan{Steps: []map[string]any{
		step("when", map[string]any{
			"if":   map[string]any{"url": urlContains},
			"then": []any{},
			"else": []any{step("navigate", navArgs)},
		}),
	}}, nil
}

// genAssertThen implements assert_then: [assert, ...then].
func genAssertThen(args map[string]any, mem MemoryReader, depth int) (Plan, error) {
	assertArgs, _ := args["assert"].(map[string]any)
	if assertArgs == nil {
		return Plan{}, fmt.Errorf("macro: assert_then requires assert args")
	}
	thenRaw, _ := args["then"].([]any)
	steps := []map[string]any{step("assert", assertArgs)}
	for _, raw := range thenRaw {
		m, ok := raw.(map[string]any)
		if !ok {
			return Plan{}, fmt.Errorf("macro: assert_then.then entry is not a step object")
		}
		steps = append(steps, m)
	}
	return Plan{Steps: steps}, nil
}

// genIncludeMemorySteps implements include_memory_steps: steps loaded from
// memory and returned unchanged. {{param:key}} placeholders in them are
// resolved when each spliced step is interpolated, from the `params` map
// that flow.execMacro folds into the run's flow vars; a missing param fails
// that step. The loaded steps are not expanded here, so the depth check
// sees only the depth Expand passes in: a stored runbook holding its own
// include_memory_steps macro step is expanded afresh when that step runs,
// and a self-including runbook is stopped only by the run's step cap.
func genIncludeMemorySteps(args map[string]any, mem MemoryReader, depth int) (Plan, error) {
	if depth >= maxIncludeDepth {
		return Plan{}, fmt.Errorf("macro: include_memory_steps recursion depth exceeded (max %d)", maxIncludeDepth)
	}
	key, _ := args["memory_key"].(string)
	if key == "" {
		return Plan{}, fmt.Errorf("macro: include_memory_steps requires memory_key")
	}
	if mem == nil {
		return Plan{}, fmt.Errorf("macro: include_memory_steps has no memory reader configured")
	}
	steps, found, err := mem(key)
	if err != nil {
		return Plan{}, err
	}
	if !found {
		return Plan{}, fmt.Errorf("macro: include_memory_steps: memory key %q not found", key)
	}
	return Plan{Note: fmt.Sprintf("macro include_memory_steps(memory_key=%s)", key), Steps: steps}, nil
}

func stringArg(args map[string]any, key, def string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return def
}

func intArgOr(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}

func stringSliceArg(args map[string]any, key string, def []string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return def
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
