package sandbox

import (
	"fmt"

	"github.com/dop251/goja"
)

// Check compiles a payload without running it. A nil error means the host
// would accept it syntactically.
func Check(code string) error {
	if _, err := goja.Compile("payload.js", rewriteImports(code), false); err != nil {
		return fmt.Errorf("payload does not compile: %w", err)
	}
	return nil
}
