package snapshot

import "errors"

var (
	// ErrNoCredential means no valid credential could be found for the refresh.
	ErrNoCredential = errors.New("no valid credential available")
	// ErrRoleListFailed means the account roster could not be fetched.
	ErrRoleListFailed = errors.New("failed to fetch role list")
	// ErrCredentialInvalid means the upstream rejected the credential; it has been flagged.
	ErrCredentialInvalid = errors.New("credential rejected by upstream")
	// ErrNoCharacterData means a full refresh produced no usable character.
	ErrNoCharacterData = errors.New("no character data available")
	// ErrNoRequestedData means a targeted refresh produced no usable character.
	ErrNoRequestedData = errors.New("requested characters not available")
	// ErrArchiveDisabled means raw-data archiving is not configured.
	ErrArchiveDisabled = errors.New("raw data archive disabled")
)
