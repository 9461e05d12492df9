package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_HTTPStatus(t *testing.T) {
	tests := []struct {
		code     Code
		expected int
	}{
		{CodeInvalidTemplate, http.StatusBadRequest},
		{CodeEmptyEmployees, http.StatusBadRequest},
		{CodeMergeFailed, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeDraftNotEditable, http.StatusConflict},
		{CodeExportFailed, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := New(tt.code, "x")
			if err.HTTPStatus != tt.expected {
				t.Errorf("HTTPStatus = %d, expected %d", err.HTTPStatus, tt.expected)
			}
		})
	}
}

func TestWrapAndIs(t *testing.T) {
	cause := fmt.Errorf("磁盘已满")
	err := Wrap(cause, CodeDatabaseError, "写入排班失败")

	if !errors.Is(err, cause) {
		t.Error("Wrap 应保留底层错误")
	}
	wrapped := fmt.Errorf("外层: %w", err)
	if !Is(wrapped, CodeDatabaseError) {
		t.Error("Is 应识别被包装的 AppError")
	}
	if GetCode(cause) != CodeUnknown {
		t.Error("普通错误应返回 UNKNOWN")
	}
	if GetHTTPStatus(wrapped) != http.StatusInternalServerError {
		t.Error("数据库错误应映射为 500")
	}
}

func TestValidationErrors_ToAppError(t *testing.T) {
	t.Run("单一错误码沿用", func(t *testing.T) {
		var ve ValidationErrors
		ve.AddCode(CodeInvalidDateRange, "start_date", "格式错误")
		ve.AddCode(CodeInvalidDateRange, "end_date", "早于开始日期")

		err := ve.ToAppError()
		if err.Code != CodeInvalidDateRange {
			t.Errorf("Code = %s, expected %s", err.Code, CodeInvalidDateRange)
		}
		if len(err.Fields) != 2 {
			t.Errorf("Fields = %v", err.Fields)
		}
	})

	t.Run("多种错误码归并", func(t *testing.T) {
		var ve ValidationErrors
		ve.AddCode(CodeEmptyEmployees, "employees", "为空")
		ve.AddCode(CodeInvalidTemplate, "template", "缺失")
		ve.Add("template", "另一条")

		err := ve.ToAppError()
		if err.Code != CodeValidationFail {
			t.Errorf("Code = %s, expected %s", err.Code, CodeValidationFail)
		}
		if got := ve.Codes(); len(got) != 2 || got[0] != CodeEmptyEmployees {
			t.Errorf("Codes() = %v", got)
		}
		if err.Fields["template"] != "缺失; 另一条" {
			t.Errorf("同字段消息应合并: %v", err.Fields["template"])
		}
	})
}
