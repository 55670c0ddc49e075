package encoder

import (
	"strings"

	"github.com/GriffinCanCode/AgentOS/scriptenc/internal/script"
	"github.com/bytedance/sonic"
)

// Stage names a pipeline step that changed the payload
type Stage string

const (
	StageObfuscate Stage = "obfuscate"
	StageLifecycle Stage = "lifecycle"
	StageImports   Stage = "imports"
	StageGrants    Stage = "grants"
	StageDecoder   Stage = "decoder"
)

// DecodeFunc is the name of the helper that restores backticks at run time
const DecodeFunc = "ScriptEnc_decode"

const (
	backtick        = "`"
	escapedBacktick = `\` + backtick
)

// needsObfuscation reports whether code carries an escaped backtick, the one
// sequence the injection framing cannot pass through
func needsObfuscation(code string) bool {
	return strings.Contains(code, escapedBacktick)
}

// templateEscaper keeps the outer template literal from cooking the user code:
// its value is the code itself, byte for byte, with backticks already tokenized
var templateEscaper = strings.NewReplacer(`\`, `\\`, "${", `\${`, "\r", `\r`)

// obfuscate hides every backtick behind token and rebuilds the code through Function
func obfuscate(code, token string) string {
	code = templateEscaper.Replace(strings.ReplaceAll(code, backtick, token))
	return "Function(" + DecodeFunc + "(" + backtick + code + backtick + "))();"
}

func wrapLifecycle(code string, runAt script.RunAt) string {
	switch runAt {
	case script.RunAtEnd:
		return `document.addEventListener("DOMContentLoaded",()=>{` + code + `});`
	case script.RunAtIdle:
		return `window.onload=()=>{` + code + `};`
	default:
		return code
	}
}

// wrapImports awaits every module in order before code runs. Blank entries must
// already be filtered out.
func wrapImports(code string, requires []string) string {
	if len(requires) == 0 {
		return code
	}
	imports := make([]string, len(requires))
	for i, url := range requires {
		imports[i] = "await import(" + jsString(url) + ")"
	}
	return "(async ()=>{" + strings.Join(imports, ";") + ";" + code + "})();"
}

// stubSource defines name as a function that only reports its call. The name is
// emitted verbatim as the function name, so a grant that is not a JS identifier
// yields a payload the host will refuse; only the message is quoted.
func stubSource(name string) string {
	msg := jsString(name + " is not implemented yet, called with")
	return "function " + name + "(...args) {console.error(" + msg + ", args)};"
}

func decoderSource(token string) string {
	return "function " + DecodeFunc + "(src) {return src.replaceAll(" + jsString(token) + `, "` + backtick + `");};`
}

// jsString quotes s as a JS string literal that carries no backtick
func jsString(s string) string {
	quoted, err := sonic.MarshalString(s)
	if err != nil {
		quoted = `""`
	}
	return strings.ReplaceAll(quoted, backtick, `\u0060`)
}
