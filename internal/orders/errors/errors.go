package errors

import "errors"

// ErrIncomplete marks quote inputs that are not yet complete enough to price.
// No request is issued for such inputs.
var ErrIncomplete = errors.New("quote inputs incomplete")

type IncompleteError struct {
	Message string
}

func (e *IncompleteError) Error() string {
	return e.Message
}

func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncomplete
}

var (
	ErrMissingStartTime = &IncompleteError{Message: "Vui lòng nhập thời gian đón trước"}
	ErrMissingSelection = &IncompleteError{Message: "Vui lòng chọn ít nhất 1 loại xe trước"}
	ErrMissingEndTime   = &IncompleteError{Message: "Vui lòng nhập thời gian kết thúc"}
	ErrInvalidStartTime = &IncompleteError{Message: "Thời gian đón không hợp lệ"}
)

var (
	ErrMissingCategoryOrBranch = errors.New("Thiếu loại xe hoặc chi nhánh")

	ErrMissingTimes = errors.New("Thiếu thời gian đón/trả")

	ErrCouldNotVerify = errors.New("Không kiểm tra được - thử lại sau")
)

var (
	ErrNoTrips = errors.New("Không tìm thấy chuyến để gán. Vui lòng tải lại trang.")

	ErrNothingToAssign = errors.New("Vui lòng chọn tài xế hoặc xe để gán")
)

var (
	ErrOrderLocked = errors.New("order is locked for editing")

	ErrSelectionLimit = errors.New("Tối đa 5 loại xe")

	ErrSelectionMinimum = errors.New("Cần ít nhất 1 loại xe")

	ErrDuplicateCategory = errors.New("Loại xe này đã được chọn. Vui lòng chọn loại xe khác hoặc tăng số lượng.")

	ErrSelectionIndex = errors.New("vehicle selection index out of range")
)
