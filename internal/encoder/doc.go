/*
Package encoder turns a user script into a payload that can be injected into a
page the injector does not control.

# Pipeline

Encode composes five stages. Each stage wraps or prepends to the output of the
previous one, so the payload only ever grows:

 1. Obfuscate: when the user code holds an escaped backtick, every backtick is
    swapped for a random 16-letter token and the code is rebuilt at run time
    through Function(...). Backslashes, "${" and carriage returns are escaped
    so the template literal carrying the code evaluates to it unchanged
 2. Lifecycle: the code is deferred to DOMContentLoaded (end) or window.onload
    (idle); start leaves it untouched
 3. Imports: declared modules are awaited in order inside an async IIFE
 4. Grants: each granted capability gets its shim, or a stub that reports the
    call to console.error when the capability is unknown
 5. Decoder: when stage 1 fired, the helper that restores the backticks is
    prepended last so it precedes its only use

A payload produced from code containing an escaped backtick carries exactly
three backticks: the two delimiting the rebuilt source and the one inside the
decoder. Code with only bare backticks is passed through untouched.

Encoding an already encoded script is a no-op: Encode reports false and the
caller delivers Script.Code unchanged. The pipeline is not idempotent.

# Capabilities

The capability table (shims.go) is an allow-list. Only names listed in a
script's grants are bound, and new capabilities are added as table rows.

# Concurrency

An Encoder is safe for concurrent use. The shim table is never mutated after
initialization; the random source is guarded.
*/
package encoder
