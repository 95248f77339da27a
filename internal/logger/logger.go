package logger

import (
	"io"
	"log"
	"os"
)

var (
	infoLogger  *log.Logger
	errorLogger *log.Logger
	debugLogger *log.Logger
)

const flags = log.Ldate | log.Ltime | log.Lshortfile

func Init() {
	InitWithWriters(os.Stdout, os.Stderr)
}

// InitWithWriters lets tests capture output.
func InitWithWriters(out, errOut io.Writer) {
	infoLogger = log.New(out, "INFO: ", flags)
	errorLogger = log.New(errOut, "ERROR: ", flags)
	debugLogger = log.New(out, "DEBUG: ", flags)
}

func Info(msg string) {
	infoLogger.Println(msg)
}

func Infof(format string, v ...interface{}) {
	infoLogger.Printf(format, v...)
}

func Error(msg string) {
	errorLogger.Println(msg)
}

func Errorf(format string, v ...interface{}) {
	errorLogger.Printf(format, v...)
}

func Debug(msg string) {
	debugLogger.Println(msg)
}

func Debugf(format string, v ...interface{}) {
	debugLogger.Printf(format, v...)
}

func Fatalf(format string, v ...interface{}) {
	errorLogger.Fatalf(format, v...)
}
