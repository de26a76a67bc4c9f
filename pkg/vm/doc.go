// Package vm executes decoded quadruple programs.
//
// An Engine walks the program with an instruction pointer, resolving every
// operand address through the range table in package memory. Function calls
// push a frame bundling fresh Local and Temporary segments with the return
// index, so recursion never shares scratch space between activations. Any
// fault aborts the run with a *RuntimeError naming the instruction index.
package vm
