package encoder_test

import (
	"context"
	"strings"
	"testing"

	"github.com/GriffinCanCode/AgentOS/scriptenc/internal/encoder"
	"github.com/GriffinCanCode/AgentOS/scriptenc/internal/sandbox"
	"github.com/GriffinCanCode/AgentOS/scriptenc/internal/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deliver encodes s, runs it in a fresh page and completes the page lifecycle
func deliver(t *testing.T, config sandbox.Config, s *script.Script) *sandbox.Result {
	t.Helper()

	payload, ok := encoder.Encode(s)
	require.True(t, ok)
	require.NoError(t, sandbox.Check(payload))

	page, err := sandbox.New(config)
	require.NoError(t, err)
	t.Cleanup(func() { page.Close() })

	ctx := context.Background()
	require.NoError(t, page.Deliver(ctx, payload))
	require.NoError(t, page.Finish(ctx))
	return page.Result()
}

func messages(result *sandbox.Result, level string) []string {
	var out []string
	for _, entry := range result.Console {
		if entry.Level == level {
			out = append(out, entry.Message)
		}
	}
	return out
}

func TestExecuteLogGrant(t *testing.T) {
	result := deliver(t, sandbox.DefaultConfig(), &script.Script{
		Code:  `GM_log("hello", 1)`,
		RunAt: script.RunAtStart,
		Grant: []string{"GM_log"},
	})
	assert.Equal(t, []string{"hello 1"}, messages(result, "log"))
}

func TestExecuteBackticks(t *testing.T) {
	result := deliver(t, sandbox.DefaultConfig(), &script.Script{
		Code:  "GM_log(`a` + `b`)",
		RunAt: script.RunAtStart,
		Grant: []string{"GM_log"},
	})
	assert.Equal(t, []string{"ab"}, messages(result, "log"))
}

func TestExecutePlainTemplateLiterals(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		runAt script.RunAt
		want  string
	}{
		{
			name:  "interpolated local",
			code:  "const name='bob'; GM_log(`hi ${name}`)",
			runAt: script.RunAtStart,
			want:  "hi bob",
		},
		{
			name:  "escape in string",
			code:  "GM_log(\"a\\nb\" + `c`)",
			runAt: script.RunAtStart,
			want:  "a\nbc",
		},
		{
			name:  "deferred interpolation",
			code:  "const name='bob'; GM_log(`hi ${name}`)",
			runAt: script.RunAtEnd,
			want:  "hi bob",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &script.Script{Code: tt.code, RunAt: tt.runAt, Grant: []string{"GM_log"}}
			payload, ok := encoder.Encode(s)
			require.True(t, ok)
			assert.NotContains(t, payload, encoder.DecodeFunc)

			result := deliver(t, sandbox.DefaultConfig(), s)
			assert.Empty(t, result.Errors)
			assert.Equal(t, []string{tt.want}, messages(result, "log"))
		})
	}
}

func TestExecuteEscapedBackticks(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		runAt script.RunAt
		want  string
	}{
		{
			name:  "escaped backtick",
			code:  "GM_log(`a\\`b`)",
			runAt: script.RunAtStart,
			want:  "a`b",
		},
		{
			name:  "interpolation and escapes survive",
			code:  "const name = 'bob';\r\nGM_log(`hi ${name} \\` done`, \"a\\nb\", '\\\\');",
			runAt: script.RunAtStart,
			want:  "hi bob ` done a\nb \\",
		},
		{
			name:  "deferred to load",
			code:  "const tag = `x\\`y`; GM_log(`${tag}:${document.readyState}`)",
			runAt: script.RunAtIdle,
			want:  "x`y:complete",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &script.Script{Code: tt.code, RunAt: tt.runAt, Grant: []string{"GM_log"}}
			payload, ok := encoder.Encode(s)
			require.True(t, ok)
			assert.Equal(t, 3, strings.Count(payload, "`"))

			result := deliver(t, sandbox.DefaultConfig(), s)
			assert.Empty(t, result.Errors)
			assert.Equal(t, []string{tt.want}, messages(result, "log"))
		})
	}
}

func TestExecuteStorageShims(t *testing.T) {
	code := `
		GM_setValue("theme", "dark");
		GM_setValue("lang", "en");
		GM_setValue("tmp", "x");
		GM_deleteValue("tmp");
		GM_log(GM_getValue("theme"), GM_listValues().join("+"));
	`
	result := deliver(t, sandbox.DefaultConfig(), &script.Script{
		Code:  code,
		RunAt: script.RunAtStart,
		Grant: []string{"GM_setValue", "GM_getValue", "GM_deleteValue", "GM_listValues", "GM_log"},
	})

	assert.Equal(t, []string{"dark theme+lang"}, messages(result, "log"))
	assert.Equal(t, map[string]string{"theme": "dark", "lang": "en"}, result.Storage)
}

func TestExecuteAddStyle(t *testing.T) {
	result := deliver(t, sandbox.DefaultConfig(), &script.Script{
		Code:  `const s = GM_addStyle("body { color: red }"); GM_log(s.tagName, s.parentNode.tagName)`,
		RunAt: script.RunAtEnd,
		Grant: []string{"GM_addStyle", "GM_log"},
	})

	assert.Equal(t, []string{"STYLE HEAD"}, messages(result, "log"))

	var appended []sandbox.DOMChange
	for _, change := range result.DOMChanges {
		if change.Type == "append_child" {
			appended = append(appended, change)
		}
	}
	require.Len(t, appended, 1)
	assert.Equal(t, "head", appended[0].Selector)
	assert.Equal(t, "style", appended[0].Property)
	assert.Equal(t, "body { color: red }", appended[0].Value)
}

func TestExecuteAddElement(t *testing.T) {
	code := "const a = GM_addElement(\"script\", {textContent: `x`, id: \"s1\"});" +
		"const b = GM_addElement(document.body, \"div\", {class: \"note\"});" +
		"GM_log(a.parentNode.tagName, a.id, a.textContent, b.parentNode.tagName, b.getAttribute(\"class\"));"

	result := deliver(t, sandbox.DefaultConfig(), &script.Script{
		Code:  code,
		RunAt: script.RunAtStart,
		Grant: []string{"GM_addElement", "GM_log"},
	})

	assert.Equal(t, []string{"HEAD s1 x BODY note"}, messages(result, "log"))
}

func TestExecuteUnsafeWindow(t *testing.T) {
	result := deliver(t, sandbox.DefaultConfig(), &script.Script{
		Code:  `GM_log(unsafeWindow === window)`,
		RunAt: script.RunAtStart,
		Grant: []string{"unsafeWindow", "GM_log"},
	})
	assert.Equal(t, []string{"true"}, messages(result, "log"))
}

func TestExecuteStub(t *testing.T) {
	result := deliver(t, sandbox.DefaultConfig(), &script.Script{
		Code:  `GM_xmlhttpRequest({url: "https://example.com"})`,
		RunAt: script.RunAtStart,
		Grant: []string{"GM_xmlhttpRequest"},
	})

	errs := messages(result, "error")
	require.Len(t, errs, 1)
	assert.True(t, strings.HasPrefix(errs[0], "GM_xmlhttpRequest is not implemented yet, called with"), errs[0])
	assert.Empty(t, result.Errors)
}

func TestExecuteRunAtEndDefersBody(t *testing.T) {
	payload, ok := encoder.Encode(&script.Script{
		Code:  `GM_log("body", document.readyState)`,
		RunAt: script.RunAtEnd,
		Grant: []string{"GM_log"},
	})
	require.True(t, ok)

	page, err := sandbox.New(sandbox.DefaultConfig())
	require.NoError(t, err)
	defer page.Close()

	ctx := context.Background()
	require.NoError(t, page.Deliver(ctx, payload))
	assert.Empty(t, page.Result().Console)

	require.NoError(t, page.Finish(ctx))
	assert.Equal(t, []string{"body interactive"}, messages(page.Result(), "log"))
}

func TestExecuteRunAtIdle(t *testing.T) {
	result := deliver(t, sandbox.DefaultConfig(), &script.Script{
		Code:  `GM_log(document.readyState)`,
		RunAt: script.RunAtIdle,
		Grant: []string{"GM_log"},
	})
	assert.Equal(t, []string{"complete"}, messages(result, "log"))
}

func TestExecuteRequiresLoadBeforeBody(t *testing.T) {
	config := sandbox.DefaultConfig()
	config.Modules = map[string]string{
		"https://cdn.example/one.js": `globalThis.seen = ["one"];`,
		"https://cdn.example/two.js": `seen.push("two");`,
	}

	result := deliver(t, config, &script.Script{
		Code:    "GM_log(seen.concat(`body`).join(\",\"))",
		RunAt:   script.RunAtStart,
		Require: []string{"https://cdn.example/one.js", "", "https://cdn.example/two.js"},
		Grant:   []string{"GM_log"},
	})

	assert.Equal(t, []string{"https://cdn.example/one.js", "https://cdn.example/two.js"}, result.Imports)
	assert.Equal(t, []string{"one,two,body"}, messages(result, "log"))
	assert.Empty(t, result.Rejections)
}

func TestExecuteFailedRequireSkipsBody(t *testing.T) {
	result := deliver(t, sandbox.DefaultConfig(), &script.Script{
		Code:    `GM_log("unreachable")`,
		RunAt:   script.RunAtEnd,
		Require: []string{"https://cdn.example/missing.js"},
		Grant:   []string{"GM_log"},
	})

	assert.Empty(t, result.Console)
	require.Len(t, result.Rejections, 1)
	assert.Contains(t, result.Rejections[0], "https://cdn.example/missing.js")
}

func TestExecuteUserScript(t *testing.T) {
	source := "// ==UserScript==\n" +
		"// @name   greeter\n" +
		"// @run-at document-idle\n" +
		"// @grant  GM_log\n" +
		"// @grant  GM_setValue\n" +
		"// ==/UserScript==\n" +
		"GM_setValue(\"greeted\", `yes`);\n" +
		"GM_log(`hello from ${document.readyState}`);\n"

	s, err := script.ParseUserScript(source)
	require.NoError(t, err)

	result := deliver(t, sandbox.DefaultConfig(), s)
	assert.Equal(t, []string{"hello from complete"}, messages(result, "log"))
	assert.Equal(t, "yes", result.Storage["greeted"])
}
