// Package logx is quizbot's structured logging: a small value-type Logger on
// top of zerolog.
//
// Stdout gets a readable console format (short timestamp and file:line
// caller) or JSON lines; the optional log file is always JSON. Components
// derive their logger with With(logx.String("comp", ...)); a publishing cycle
// adds run_id and trigger.
package logx
