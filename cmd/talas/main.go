// talas — консольный клиент ленты проектов: лайки, закладки и комментарии
// через протокол оптимистичных мутаций.
package main

import (
	"errors"
	"fmt"
	"os"
)

// version проставляется при сборке: -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		// Об откате мутации пользователь уже узнал из notice.
		if !errors.Is(err, errMutationFailed) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
