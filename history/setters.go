package history

func SetStatus(status Status) UpdateSetter {
	return func(r *Run) error {
		if !status.IsValid() {
			return ErrInvalidStatus
		}
		r.Status = status
		return nil
	}
}

func SetFailure(state, reason, message string) UpdateSetter {
	return func(r *Run) error {
		r.Status = StatusFailed
		r.FailedState = state
		r.Reason = reason
		r.ErrorMessage = message
		return nil
	}
}

func SetArtifact(path string, size int64) UpdateSetter {
	return func(r *Run) error {
		r.ArtifactPath = path
		r.ArtifactSize = size
		return nil
	}
}
