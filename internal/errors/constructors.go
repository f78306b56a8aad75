package errors

// Convenience constructors for the error taxonomy used across the
// entity, lifecycle, configstore, and scaffold packages.

// Entity resolution errors

func EntityNotFound(kind, name string) *StackError {
	return New(CategoryNotFound, SeverityError, "entity does not exist").
		WithContext("kind", kind).
		WithContext("entity", name)
}

func EntityAlreadyExists(kind, name string) *StackError {
	return New(CategoryAlreadyExists, SeverityError, "entity already exists").
		WithContext("kind", kind).
		WithContext("entity", name)
}

// Input errors

func InvalidArgument(reason string) *StackError {
	return New(CategoryValidation, SeverityError, reason)
}

// Config errors

func EntityConfigNotFound(kind, name string) *StackError {
	return New(CategoryConfig, SeverityError, "entity has no configuration file").
		WithContext("kind", kind).
		WithContext("entity", name)
}

func EntityConfigUpdateError(key, value string, cause error) *StackError {
	return Wrap(cause, CategoryConfig, SeverityError, "configuration update failed").
		WithContext("key", key).
		WithContext("value", value)
}

// Lifecycle errors

func EntityLifecycleError(kind, name, operation string, cause error) *StackError {
	return Wrap(cause, CategoryLifecycle, SeverityError, "lifecycle operation failed").
		WithContext("kind", kind).
		WithContext("entity", name).
		WithContext("operation", operation)
}

func EntityInitializationError(kind, name string, cause error) *StackError {
	return Wrap(cause, CategoryInitialization, SeverityError, "entity initialization failed").
		WithContext("kind", kind).
		WithContext("entity", name)
}

// Orchestration runtime boundary

func RuntimeUnavailable(cause error) *StackError {
	return WrapRetryable(cause, CategoryRuntime, SeverityWarning, "orchestration runtime unavailable")
}
