// cmd/adminhash prints an Argon2id hash for UNO_ADMIN_PASSWORD_HASH.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/jason-s-yu/uno/internal/auth"
	"github.com/sirupsen/logrus"
)

func main() {
	var password string
	if len(os.Args) > 1 {
		password = os.Args[1]
	} else {
		fmt.Fprint(os.Stderr, "admin password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			logrus.Fatalf("read password: %v", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		logrus.Fatal("password must not be empty")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		logrus.Fatalf("hash password: %v", err)
	}
	fmt.Println(hash)
}
