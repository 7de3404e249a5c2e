// Package main - утилита для генерации Argon2id-хеша пароля админ-панели.
// Запуск: go run ./cmd/hashpass <пароль>
//
// Результат вставьте в .env как ADMIN_PASSWORD_HASH.
package main

import (
	"fmt"
	"os"

	"serotonyl.ru/credibility-bot/internal/features/admin"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "Использование: go run ./cmd/hashpass <пароль>")
		os.Exit(2)
	}

	hash, err := admin.HashPassword(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr, "Хеш пароля (вставьте в .env как ADMIN_PASSWORD_HASH):")
	fmt.Println(hash)
}
