/*
Package script defines the user script descriptor consumed by the encoder.

# Overview

A Script is the unit handed over by the script store: the raw, untrusted source,
whether it has already been through the encoder, the page-lifecycle point it must
run at, and the ordered lists of module URLs and capability names it declares.

Blank entries in Require and Grant are valid and inert. The encoder skips them,
so callers never need to clean the lists up front.

# Loading

Scripts can be read from three file shapes:

  - *.user.js / *.js: a userscript with a // ==UserScript== metadata block
  - *.yaml / *.yml: a manifest decoded with goccy/go-yaml
  - *.toml: a manifest decoded with pelletier/go-toml

LoadGlob expands doublestar patterns (scripts/**\/*.user.js) and loads every match.
*/
package script
