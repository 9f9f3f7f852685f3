package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinUsernameLength       = 3
	MaxUsernameLength       = 30
	MinDisplayNameLength    = 2
	MaxDisplayNameLength    = 100
	MinTaskTitleLength      = 3
	MaxTaskTitleLength      = 200
	MinTaskDescriptionLength = 10
	MaxTaskDescriptionLength = 5000
	MaxBioLength            = 1000
	MaxLocationLength       = 100
	MinMessageLength        = 1
	MaxBudget               = 100_000_000_00 // 100 миллионов в минимальных единицах
	MinLatitude             = -90.0
	MaxLatitude             = 90.0
	MinLongitude            = -180.0
	MaxLongitude            = 180.0
	MaxTaskImages           = 10
)

// ValidateLength проверяет длину строки в рунах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.ToLower(strings.TrimSpace(email))

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart := parts[0]
	domainPart := parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}
	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}

	emailRegex := regexp.MustCompile(`^[a-z0-9._+-]+$`)
	if !emailRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}

	domainRegex := regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	if !domainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateUsername проверяет имя пользователя.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("имя пользователя обязательно")
	}

	username = strings.TrimSpace(username)

	if err := ValidateLength("имя пользователя", username, MinUsernameLength, MaxUsernameLength); err != nil {
		return err
	}

	usernameRegex := regexp.MustCompile(`^[a-z0-9_]+$`)
	if !usernameRegex.MatchString(strings.ToLower(username)) {
		return fmt.Errorf("имя пользователя может содержать только буквы, цифры и подчёркивание")
	}

	return nil
}

// ValidateBudget проверяет бюджет задачи в минимальных единицах валюты.
func ValidateBudget(budget, min int64) error {
	if budget < min {
		return fmt.Errorf("бюджет должен быть не менее %d", min)
	}
	if budget > MaxBudget {
		return fmt.Errorf("бюджет должен быть не более %d", int64(MaxBudget))
	}
	return nil
}

// ValidateCoordinates проверяет географические координаты, если они заданы.
func ValidateCoordinates(lat, lng *float64) error {
	if lat == nil && lng == nil {
		return nil
	}
	if lat == nil || lng == nil {
		return fmt.Errorf("широта и долгота задаются вместе")
	}
	if *lat < MinLatitude || *lat > MaxLatitude {
		return fmt.Errorf("широта должна быть в диапазоне [%v, %v]", MinLatitude, MaxLatitude)
	}
	if *lng < MinLongitude || *lng > MaxLongitude {
		return fmt.Errorf("долгота должна быть в диапазоне [%v, %v]", MinLongitude, MaxLongitude)
	}
	return nil
}

// ValidateMessageContent проверяет содержимое текстового сообщения.
func ValidateMessageContent(content string, maxLength int) error {
	length := utf8.RuneCountInString(strings.TrimSpace(content))
	if length < MinMessageLength {
		return fmt.Errorf("сообщение не может быть пустым")
	}
	if length > maxLength {
		return fmt.Errorf("сообщение должно быть не более %d символов", maxLength)
	}
	return nil
}
