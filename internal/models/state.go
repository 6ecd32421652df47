// Package models defines the dialogue state enumeration for SchoolBot.
package models

// StateType names one node of the conversation state machine. The source
// data this system replaced mixed integer and string state keys; here every
// state is carried through this single closed type.
type StateType string

const (
	// StateRoleSelect is the initial state: the user picks Student or Teacher.
	StateRoleSelect StateType = "ROLE_SELECT"
	// StateStudentAuth awaits a student administration number.
	StateStudentAuth StateType = "STUDENT_AUTH"
	// StateTeacherAuth awaits a teacher ID.
	StateTeacherAuth StateType = "TEACHER_AUTH"
	// StatePasswordSetup awaits a first-time password (4-8 characters).
	StatePasswordSetup StateType = "PASSWORD_SETUP"
	// StatePasswordSetupConfirm awaits re-entry of the setup password.
	StatePasswordSetupConfirm StateType = "PASSWORD_SETUP_CONFIRM"
	// StateSecurityQuestion awaits the security question text.
	StateSecurityQuestion StateType = "SECURITY_SETUP_QUESTION"
	// StateSecurityAnswer awaits the security answer text.
	StateSecurityAnswer StateType = "SECURITY_SETUP_ANSWER"
	// StatePasswordConfirm awaits a returning user's password.
	StatePasswordConfirm StateType = "PASSWORD_CONFIRM"
	// StateStudentMenu is the authenticated student menu.
	StateStudentMenu StateType = "STUDENT_MENU"
	// StateTeacherMenu is the authenticated teacher menu.
	StateTeacherMenu StateType = "TEACHER_MENU"
	// StateTextbookChoose awaits a subject for textbook links.
	StateTextbookChoose StateType = "TEXTBOOK_CHOOSE"
	// StateVideoChoose awaits a subject for video lesson links.
	StateVideoChoose StateType = "VIDEO_CHOOSE"
	// StateResultsChoose awaits a subject for results/feedback retrieval.
	StateResultsChoose StateType = "RESULTS_CHOOSE"
	// StateUpload is the teacher material-upload leaf.
	StateUpload StateType = "UPLOAD"
	// StatePerformance is the teacher performance-view leaf.
	StatePerformance StateType = "PERFORMANCE"
	// StateLogoutConfirm awaits the exact "{Role} Logout" phrase.
	StateLogoutConfirm StateType = "LOGOUT_CONFIRM"

	// StateResetID awaits the user ID for password recovery.
	StateResetID StateType = "RESET_ID"
	// StateResetSecurityAnswer awaits the stored security answer.
	StateResetSecurityAnswer StateType = "RESET_SECURITY_ANSWER"
	// StateResetNewPassword awaits the replacement password.
	StateResetNewPassword StateType = "RESET_NEW_PASSWORD"
	// StateResetConfirmPassword awaits re-entry of the replacement password.
	StateResetConfirmPassword StateType = "RESET_CONFIRM_PASSWORD"

	// StateEnd is the terminal state: the dialogue is over until /start.
	StateEnd StateType = "END"
)

// IsValidState checks whether the given state belongs to the closed set.
func IsValidState(s StateType) bool {
	switch s {
	case StateRoleSelect, StateStudentAuth, StateTeacherAuth,
		StatePasswordSetup, StatePasswordSetupConfirm,
		StateSecurityQuestion, StateSecurityAnswer, StatePasswordConfirm,
		StateStudentMenu, StateTeacherMenu,
		StateTextbookChoose, StateVideoChoose, StateResultsChoose,
		StateUpload, StatePerformance, StateLogoutConfirm,
		StateResetID, StateResetSecurityAnswer,
		StateResetNewPassword, StateResetConfirmPassword,
		StateEnd:
		return true
	default:
		return false
	}
}

// IsAuthenticated reports whether the state is only reachable after a
// successful login. Sessions in these states always carry a role.
func (s StateType) IsAuthenticated() bool {
	switch s {
	case StateStudentMenu, StateTeacherMenu,
		StateTextbookChoose, StateVideoChoose, StateResultsChoose,
		StateUpload, StatePerformance, StateLogoutConfirm:
		return true
	default:
		return false
	}
}

// DataKey names a scratch field stored on a session.
type DataKey string

const (
	DataKeyRole             DataKey = "role"
	DataKeyFirstTime        DataKey = "firstTime"
	DataKeyUserID           DataKey = "userId"
	DataKeyFullName         DataKey = "fullName"
	DataKeyGender           DataKey = "gender"
	DataKeyClassroom        DataKey = "classroom"
	DataKeyGrade            DataKey = "grade"
	DataKeySubject          DataKey = "subject"
	DataKeyPassword         DataKey = "password"
	DataKeySecurityQuestion DataKey = "securityQuestion"
	DataKeySecurityAnswer   DataKey = "securityAnswer"

	// Transient fields, cleared when the dialogue step they serve completes.
	DataKeyPendingPassword       DataKey = "pendingPassword"
	DataKeyPendingSecurityAnswer DataKey = "pendingSecurityAnswer"
	DataKeyResetUserID           DataKey = "resetUserId"
	DataKeyViewingCategory       DataKey = "viewingCategory"
)
