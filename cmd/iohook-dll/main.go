// Command iohook-dll is the hook library loaded into target programs by
// iohook inject. It is built with -buildmode=c-shared; all of its work is
// done when the library is loaded.
package main

func main() {}
