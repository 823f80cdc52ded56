// Package lua runs the optional init script.
//
// The script runs in a sandboxed gopher-lua state with only the base,
// table, string and math libraries, and without dofile, loadfile, load,
// loadstring or require. It talks to xifront through one global table:
//
//	xifront.bind("Ctrl+S", "quit")          -- bind a key to an action
//	xifront.bind("F5", "insert:\t")         -- literal insertion
//	xifront.unbind("Ctrl+W")                -- remove a binding
//	xifront.log("loaded " .. xifront.document)
//
// print is redirected to the log. Bindings are collected while the script
// runs and applied afterwards, over the defaults and the config file.
package lua
