// Package zap минимальная копия API go.uber.org/zap для тестов анализатора.
package zap

type Logger struct{}

func (l *Logger) Fatal(msg string)      {}
func (l *Logger) Error(msg string)      {}
func (l *Logger) Sugar() *SugaredLogger { return &SugaredLogger{} }

type SugaredLogger struct{}

func (s *SugaredLogger) Fatalw(msg string, kv ...any) {}
