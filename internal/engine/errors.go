package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrEngineInit is wrapped by every engine start-up failure.
	ErrEngineInit = errors.New("engine initialization failed")
	// ErrUnknownEngine is returned by New for unregistered engine names.
	ErrUnknownEngine = errors.New("unknown engine")
	// ErrEngineClosed is returned when a closed engine is used.
	ErrEngineClosed = errors.New("engine is closed")
)

// InitErrorKind classifies engine start-up failures.
type InitErrorKind string

const (
	// KindUnsupportedOption means the installed engine rejected a construction argument,
	// typically because it was renamed or removed upstream.
	KindUnsupportedOption InitErrorKind = "unsupported_option"
	// KindMissingDependency means the engine or its runtime is not installed.
	KindMissingDependency InitErrorKind = "missing_dependency"
	// KindRuntime covers any other start-up failure.
	KindRuntime InitErrorKind = "runtime"
)

// InitError reports why an engine could not be created.
type InitError struct {
	Engine      string
	Kind        InitErrorKind
	Option      string // offending argument for KindUnsupportedOption
	Remediation string
	Err         error
}

func (e *InitError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Engine, ErrEngineInit)
	switch e.Kind {
	case KindUnsupportedOption:
		msg += fmt.Sprintf(": unsupported option %q", e.Option)
	case KindMissingDependency:
		msg += ": missing dependency"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InitError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrEngineInit}
	}
	return []error{ErrEngineInit, e.Err}
}

// remediations maps rejected construction arguments to operator hints.
var remediations = map[string]string{
	"use_gpu": "the installed PaddleOCR no longer accepts use_gpu; run without --gpu " +
		"or install paddleocr<3 (pip install 'paddleocr<3')",
	"use_angle_cls": "the installed PaddleOCR renamed use_angle_cls; install paddleocr<3 or upgrade heic2txt",
	"text_det_limit_side_len": "the installed PaddleOCR predates text_det_limit_side_len; " +
		"upgrade with pip install -U paddleocr",
	"gpu": "the installed EasyOCR rejected the gpu argument; upgrade with pip install -U easyocr",
}

// NewInitError builds an InitError with a remediation hint for the given kind and option.
func NewInitError(engineName string, kind InitErrorKind, option string, err error) *InitError {
	ie := &InitError{Engine: engineName, Kind: kind, Option: option, Err: err}
	switch kind {
	case KindUnsupportedOption:
		if hint, ok := remediations[option]; ok {
			ie.Remediation = hint
		} else {
			ie.Remediation = fmt.Sprintf("the installed %s does not accept %q; check the engine version", engineName, option)
		}
	case KindMissingDependency:
		ie.Remediation = installHint(engineName)
	default:
		ie.Remediation = "re-run with --log-level debug for engine output"
	}
	return ie
}

func installHint(engineName string) string {
	switch engineName {
	case Tesseract:
		return "install tesseract and its language data (brew install tesseract / apt install tesseract-ocr)"
	case EasyOCR:
		return "install EasyOCR into the configured interpreter: pip install easyocr"
	case PaddleOCR:
		return "install PaddleOCR into the configured interpreter: pip install paddlepaddle paddleocr"
	case Vision:
		return "Apple Vision requires macOS and PyObjC: pip install pyobjc-framework-Vision"
	}
	return "install the engine and retry"
}
