package goroutine

import (
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/hustlehub/backend/internal/logger"
)

// SafeGo запускает функцию в горутине с перехватом паники.
// Используется для fire-and-forget задач (реалтайм-пуши), где паника
// дочерней горутины не должна ронять процесс.
func SafeGo(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				if logger.Log != nil {
					logger.Log.WithFields(logrus.Fields{
						"goroutine": name,
						"panic":     r,
						"stack":     string(debug.Stack()),
					}).Error("goroutine panic recovered")
				}
			}
		}()
		fn()
	}()
}
