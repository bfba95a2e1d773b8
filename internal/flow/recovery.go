// Dialog OOB handling, overlay dismissal, auto-download capture, auto-tab
// switching, and per-step proof (spec.md §4.1, §4.4).
package flow

import (
	"context"
	"time"
)

// handleDialogOOB closes the tab's blocking dialog using the session's
// direct handler, corroborated by polling Tier-0 until dialog_open=false
// (spec.md §9 "Open question — dialog wait budget": treat "no dialog" as
// closed only when corroborated by a Tier-0 poll). The handler runs over the
// session's own connection; no out-of-band connection (browser.OOBConn) is
// dialed or raced against it.
func (e *Engine) handleDialogOOB(ctx context.Context, tabID string, accept bool, promptText string) error {
	tabCtx, _, err := e.Session.EnsureTab(tabID)
	if err != nil {
		return err
	}

	maxWait := 2 * time.Second
	deadline := time.Now().Add(maxWait)

	_ = e.Session.HandleDialog(tabCtx, accept, promptText)

	for time.Now().Before(deadline) {
		if open, _ := e.Telemetry.DialogOpen(tabID); !open {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	if open, _ := e.Telemetry.DialogOpen(tabID); open {
		return context.DeadlineExceeded
	}
	return nil
}

// dismissOverlay runs the center-of-viewport overlay hit-test described by
// spec.md §9 "Open question — overlay heuristic": prefer close > reject >
// accept scoring. The phrases and scores are regexes inside the JS below,
// not a separate data table; tuning them means editing this function.
func (e *Engine) dismissOverlay(ctx context.Context, tabID string) error {
	tabCtx, _, err := e.Session.EnsureTab(tabID)
	if err != nil {
		return err
	}
	const overlayDismissJS = `(() => {
		const scored = [];
		const cx = window.innerWidth / 2, cy = window.innerHeight / 2;
		const candidates = document.elementsFromPoint(cx, cy);
		const weight = (text) => {
			const t = text.trim().toLowerCase();
			if (/close|dismiss|×|x/.test(t)) return 3;
			if (/reject|no thanks|decline/.test(t)) return 2;
			if (/accept|agree|ok|got it/.test(t)) return 1;
			return 0;
		};
		for (const el of candidates) {
			const text = el.innerText || el.getAttribute('aria-label') || '';
			const w = weight(text);
			if (w > 0) scored.push([w, el]);
		}
		scored.sort((a, b) => b[0] - a[0]);
		if (scored.length > 0) { scored[0][1].click(); return true; }
		return false;
	})()`
	var clicked bool
	return e.Session.Eval(ctx, tabCtx, overlayDismissJS, &clicked)
}

// autoDownloadCapture implements spec.md §4.1 "Auto-download capture":
// dispatch the download tool after the step and attach the resulting
// metadata to the step summary. The download tool snapshots the directory
// when it is dispatched, so no pre-click baseline is taken: a file that is
// already complete by then is not reported.
func (e *Engine) autoDownloadCapture(ctx context.Context, tabID string, opts Options) *DownloadInfo {
	timeout := opts.AutoDownloadTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	result, err := e.Dispatcher.Dispatch(ctx, "download", map[string]any{
		"wait_for": true,
		"timeout_ms": timeout.Milliseconds(),
	})
	if err != nil || result.IsError {
		return nil
	}
	payload, ok := resultPayload(result).(map[string]any)
	if !ok {
		return nil
	}
	info := &DownloadInfo{}
	if v, ok := payload["file_name"].(string); ok {
		info.FileName = v
	}
	if v, ok := payload["bytes"].(float64); ok {
		info.Bytes = int64(v)
	}
	if v, ok := payload["mime_type"].(string); ok {
		info.MimeType = v
	}
	if v, ok := payload["sha256"].(string); ok {
		info.SHA256 = v
	}
	if v, ok := payload["artifact_id"].(string); ok {
		info.Artifact = v
	}
	if info.FileName == "" {
		return nil
	}
	return info
}

// autoTabSwitch implements spec.md §4.1 "Auto-tab": diff the tab list
// before/after a click-like step and switch to an unambiguous new tab.
func (e *Engine) autoTabSwitch(ctx context.Context, tabID string, opts Options) *AutoTabInfo {
	tabCtx, _, err := e.Session.EnsureTab(tabID)
	if err != nil {
		return nil
	}
	targets, err := e.Session.ListTargets(tabCtx)
	if err != nil {
		return nil
	}
	known := map[string]bool{}
	for _, t := range targets {
		known[t.ID] = true
	}

	time.Sleep(150 * time.Millisecond) // let a new target register

	after, err := e.Session.ListTargets(tabCtx)
	if err != nil {
		return nil
	}
	var fresh []string
	for _, t := range after {
		if !known[t.ID] {
			fresh = append(fresh, t.ID)
		}
	}
	switch len(fresh) {
	case 0:
		return nil
	case 1:
		if err := e.Session.SwitchTab(fresh[0]); err != nil {
			return nil
		}
		return &AutoTabInfo{Switched: true, TabID: fresh[0]}
	default:
		return &AutoTabInfo{Switched: false, Ambiguous: true}
	}
}

// buildProof implements spec.md §4.1 "Per-step proof".
func (e *Engine) buildProof(tabCtx context.Context, tabID string, sinceCursor int64, forcedAmbiguous bool) *Proof {
	url, _ := e.Session.CurrentURL(tabCtx)
	title, _ := e.Session.CurrentTitle(tabCtx)
	snap := e.Telemetry.TierZeroSnapshot(tabID, sinceCursor, 0, 0)

	p := &Proof{
		Since:      sinceCursor,
		URL:        url,
		Title:      title,
		Delta:      snap.Summary,
		DialogOpen: snap.DialogOpen,
		Ambiguous:  forcedAmbiguous,
	}
	switch {
	case snap.DialogOpen:
		p.Top = "dialog: " + snap.Dialog.Message
	case snap.Summary.LastError != "":
		p.Top = "error: " + snap.Summary.LastError
	case snap.Summary.NetworkFailed > 0:
		p.Top = "network failures present"
	}
	return p
}
