/*
Package csi compiles text templates made of bracket directives.

A directive has the form [keyword modifier argument], where modifier is
"html" (escape the result) or "raw" (insert as is):

	[var html title]           variable, empty when unset
	[let raw title]            variable, error when unset
	[include raw _header.html] compile another file, skipped on a cycle
	[require raw _nav.html]    compile another file, error on a cycle or when missing
	[wrapped raw _layout.html] hand everything produced so far to a layout
	[set title Home]           assign a variable
	[stash body]               move the output so far into a variable

Variables fall back to an Env (the process environment by default). Include
paths are relative to the file that contains the directive. An included file
sees the variables of its parent, but whatever it sets is discarded when it
returns.

A layout used with wrapped reads the captured output from the "content"
variable:

	<body>[var raw content]</body>

A literal bracket is written \[ and a literal backslash before a bracket \\.
Inside a directive \] and \\ escape the same way.
*/
package csi
