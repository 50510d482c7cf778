package main

import "fmt"

type versionCmd struct{ *root }

func (v *versionCmd) Run() error {
	fmt.Fprintf(v.root.out(), "%s version %s", v.root.program, version)
	if commit != "" {
		fmt.Fprintf(v.root.out(), " (%s", commit)
		if date != "" {
			fmt.Fprintf(v.root.out(), ", %s", date)
		}
		fmt.Fprint(v.root.out(), ")")
	}
	fmt.Fprintln(v.root.out())
	return nil
}
