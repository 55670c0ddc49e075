/*
Package sandbox emulates the host page that encoded scripts are injected into.

# Overview

A Page is a goja runtime dressed up as a browser content context:

  - window is the global object; window.onload and addEventListener("load")
    fire from Finish
  - document exposes createElement, querySelector, head, body,
    documentElement, readyState and addEventListener("DOMContentLoaded")
  - localStorage is backed by an in-memory Storage
  - console output is captured as LogEntry values
  - element mutations are recorded as DOMChange values

Payloads are handed to Deliver in order; Finish then fires DOMContentLoaded
exactly once followed by load. Exceptions from listeners and unhandled promise
rejections are recorded in the Result rather than returned, as a browser
would report them to the console.

# Modules

goja has no dynamic import(). The page rewrites the `await import(url)`
expressions produced by the encoder into calls to a host function that
evaluates Config.Modules[url] and settles a promise. Unknown URLs reject.

# Security Model

The page is a test double, not a security boundary:
  - require, process, module and exports are removed
  - timers never fire
  - execution is interrupted on timeout or context cancellation

# Usage Example

	pool, err := sandbox.NewPool(sandbox.DefaultConfig(), 4)
	if err != nil {
		return err
	}
	defer pool.Close()

	result, err := pool.Run(ctx, dom, payload)
*/
package sandbox
