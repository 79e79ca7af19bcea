package client

import "encoding/json"

// Frame discriminants owned by the authorization handshake.
const (
	typeUpdateAuthorizationState = "updateAuthorizationState"

	authStateWaitParameters    = "authorizationStateWaitTdlibParameters"
	authStateWaitEncryptionKey = "authorizationStateWaitEncryptionKey"
	authStateWaitPhoneNumber   = "authorizationStateWaitPhoneNumber"
	authStateWaitRegistration  = "authorizationStateWaitRegistration"
	authStateWaitCode          = "authorizationStateWaitCode"
	authStateWaitPassword      = "authorizationStateWaitPassword"
	authStateWaitOtherDevice   = "authorizationStateWaitOtherDeviceConfirmation"
	authStateReady             = "authorizationStateReady"
	authStateLoggingOut        = "authorizationStateLoggingOut"
	authStateClosing           = "authorizationStateClosing"
	authStateClosed            = "authorizationStateClosed"
)

// Handshake request discriminants sent back to the component.
const (
	methodSetParameters      = "setTdlibParameters"
	methodCheckEncryptionKey = "checkDatabaseEncryptionKey"
	methodSetPhoneNumber     = "setAuthenticationPhoneNumber"
	methodCheckCode          = "checkAuthenticationCode"
	methodCheckPassword      = "checkAuthenticationPassword"
)

// Settings is the component's instance configuration, sent verbatim as the
// setTdlibParameters payload when the handshake asks for it.
type Settings struct {
	UseTestDC              bool   `json:"use_test_dc,omitempty" mapstructure:"use_test_dc"`
	DatabaseDirectory      string `json:"database_directory,omitempty" mapstructure:"database_directory"`
	FilesDirectory         string `json:"files_directory,omitempty" mapstructure:"files_directory"`
	UseFileDatabase        bool   `json:"use_file_database,omitempty" mapstructure:"use_file_database"`
	UseChatInfoDatabase    bool   `json:"use_chat_info_database,omitempty" mapstructure:"use_chat_info_database"`
	UseMessageDatabase     bool   `json:"use_message_database,omitempty" mapstructure:"use_message_database"`
	UseSecretChats         bool   `json:"use_secret_chats,omitempty" mapstructure:"use_secret_chats"`
	APIID                  int32  `json:"api_id" mapstructure:"api_id"`
	APIHash                string `json:"api_hash" mapstructure:"api_hash"`
	SystemLanguageCode     string `json:"system_language_code,omitempty" mapstructure:"system_language_code"`
	DeviceModel            string `json:"device_model,omitempty" mapstructure:"device_model"`
	SystemVersion          string `json:"system_version,omitempty" mapstructure:"system_version"`
	ApplicationVersion     string `json:"application_version,omitempty" mapstructure:"application_version"`
	EnableStorageOptimizer bool   `json:"enable_storage_optimizer,omitempty" mapstructure:"enable_storage_optimizer"`
	IgnoreFileNames        bool   `json:"ignore_file_names,omitempty" mapstructure:"ignore_file_names"`
}

// validate checks the fields the component refuses to start without.
func (s Settings) validate() error {
	if s.APIID == 0 {
		return errSettings("api_id not set")
	}
	if s.APIHash == "" {
		return errSettings("api_hash not set")
	}
	return nil
}

// --- Handshake wire shapes ---

// authorizationUpdate is the outer envelope of an updateAuthorizationState
// frame; the inner object carries its own "@type" discriminant.
type authorizationUpdate struct {
	State json.RawMessage `json:"authorization_state"`
}

type setParametersRequest struct {
	Type       string   `json:"@type"`
	Parameters Settings `json:"parameters"`
}

type checkEncryptionKeyRequest struct {
	Type          string `json:"@type"`
	EncryptionKey string `json:"encryption_key"`
}

type setPhoneNumberRequest struct {
	Type        string `json:"@type"`
	PhoneNumber string `json:"phone_number"`
}

type checkCodeRequest struct {
	Type string `json:"@type"`
	Code string `json:"code"`
}

type checkPasswordRequest struct {
	Type     string `json:"@type"`
	Password string `json:"password"`
}
