package builtin

import "github.com/AmirTlinov/browser-mcp/internal/tool"

// RegisterAll constructs and registers the full mandatory tool catalog
// (spec.md §6) against reg, sharing a single Deps bundle across every
// constructor.
func RegisterAll(reg *tool.Registry, d Deps) {
	tools := []tool.Tool{
		NewNavigateTool(d),
		NewClickTool(d),
		NewTypeTool(d),
		NewScrollTool(d),
		NewMouseTool(d),
		NewResizeTool(d),
		NewScreenshotTool(d),
		NewFormTool(d),
		NewUploadTool(d),
		NewDownloadTool(d),
		NewDialogTool(d),
		NewTOTPTool(d),
		NewWaitTool(d),
		NewFetchTool(d),
		NewHTTPTool(d),
		NewJSTool(d),
		NewStorageTool(d),
		NewCookiesTool(d),
		NewCaptchaTool(d),
		NewTabsTool(d),
		NewPageTool(d),
		NewExtractContentTool(d),
		NewArtifactTool(d),
		NewBrowserTool(d),
	}
	for _, t := range tools {
		reg.Register(t)
	}
}
