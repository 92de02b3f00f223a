package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *FolioError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *FolioError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationFailed(field, reason string) *FolioError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Sync pipeline errors

// RemoteUnavailable marks a listing or fetch failure against the remote
// provider. The pass is abandoned and retried on the next cycle.
func RemoteUnavailable(path string, cause error) *FolioError {
	return WrapRetryable(cause, CategoryRemote, SeverityWarning, "remote unavailable").
		WithContext("path", path)
}

// RenderFailure marks malformed content for a single item. The item is
// skipped and the rest of the pass continues.
func RenderFailure(item string, cause error) *FolioError {
	return Wrap(cause, CategoryRender, SeverityWarning, "render failed").
		WithContext("item", item)
}

// StorageWriteFailure marks a failed put or delete against durable storage.
func StorageWriteFailure(key string, cause error) *FolioError {
	return WrapRetryable(cause, CategoryStorage, SeverityError, "storage write failed").
		WithContext("key", key)
}

// StorageReadFailure marks a transient failure reading durable storage,
// as opposed to the key being absent.
func StorageReadFailure(key string, cause error) *FolioError {
	return WrapRetryable(cause, CategoryStorage, SeverityError, "storage read failed").
		WithContext("key", key)
}

func MirrorError(operation string, cause error) *FolioError {
	return Wrap(cause, CategoryFileSystem, SeverityError, "mirror operation failed").
		WithContext("operation", operation)
}

func NotFound(key string) *FolioError {
	return New(CategoryNotFound, SeverityInfo, "not found: "+key).
		WithContext("key", key)
}

// Internal errors

func InternalError(message string, cause error) *FolioError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
