package user

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/fellowship/core"
)

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	if err == nil {
		return nil
	}
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	if !ok {
		t.Fatalf("error = %v, want *core.ValidationError", err)
	}
	return vErr.FieldMap()
}

func TestNewUser_Validate(t *testing.T) {
	valid := func() NewUser {
		return NewUser{
			FirstName:       " Grace ",
			LastName:        "Mbuyi",
			Email:           " GRACE@test.cd ",
			Password:        "s3cr3t-Word",
			PasswordConfirm: "s3cr3t-Word",
		}
	}

	tests := []struct {
		name    string
		mutate  func(nu *NewUser)
		wantErr map[string]string
	}{
		{name: "valid", mutate: func(nu *NewUser) {}},
		{
			name:    "passwords do not match",
			mutate:  func(nu *NewUser) { nu.PasswordConfirm = "other" },
			wantErr: map[string]string{"confirmPassword": "passwords do not match"},
		},
		{
			name:    "too short",
			mutate:  func(nu *NewUser) { nu.Password, nu.PasswordConfirm = "ab1", "ab1" },
			wantErr: map[string]string{"password": pwdMinLenText},
		},
		{
			name:    "whitespace",
			mutate:  func(nu *NewUser) { nu.Password, nu.PasswordConfirm = "abc def1", "abc def1" },
			wantErr: map[string]string{"password": pwdNoSpaceText},
		},
		{
			name:    "all numeric",
			mutate:  func(nu *NewUser) { nu.Password, nu.PasswordConfirm = "12345678", "12345678" },
			wantErr: map[string]string{"password": pwdNotAllNumText},
		},
		{
			name:    "similar to email",
			mutate:  func(nu *NewUser) { nu.Password, nu.PasswordConfirm = "grace@test.cd", "grace@test.cd" },
			wantErr: map[string]string{"password": pwdAttrSimText},
		},
		{
			name:    "admin is not self-service",
			mutate:  func(nu *NewUser) { nu.Role = RoleAdmin },
			wantErr: map[string]string{"role": "role must be one of [parent teacher]"},
		},
		{
			name:   "missing names",
			mutate: func(nu *NewUser) { nu.FirstName, nu.LastName = "", " " },
			wantErr: map[string]string{
				"firstName": "this field is required",
				"lastName":  "this field is required",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := valid()
			tt.mutate(&nu)
			got := fieldErrors(t, nu.Validate())
			if len(got) != len(tt.wantErr) {
				t.Fatalf("Validate() fields = %v, want %v", got, tt.wantErr)
			}
			for fld, msg := range tt.wantErr {
				if got[fld] != msg {
					t.Errorf("Validate() %s = %q, want %q", fld, got[fld], msg)
				}
			}
		})
	}

	nu := valid()
	if err := nu.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error = %v", err)
	}
	if nu.FirstName != "Grace" || nu.Email != "grace@test.cd" || nu.Role != RoleParent {
		t.Errorf("Validate() did not clean the form: %+v", nu)
	}
}

func TestChangePassword_Validate(t *testing.T) {
	usr := User{FirstName: "Benedicte", LastName: "Ilunga", Email: "bene@test.cd"}

	cp := ChangePassword{CurrentPassword: "old", NewPassword: "benedicte", PasswordConfirm: "benedicte"}
	if got := fieldErrors(t, cp.Validate(usr)); got["newPassword"] != pwdAttrSimText {
		t.Errorf("Validate() = %v, want similarity error", got)
	}

	cp = ChangePassword{CurrentPassword: "old", NewPassword: "river-Stone9", PasswordConfirm: "river-Stone9"}
	if err := cp.Validate(usr); err != nil {
		t.Errorf("Validate() unexpected error = %v", err)
	}
}

func TestResetPassword_Validate(t *testing.T) {
	if got := fieldErrors(t, ResetPassword{Password: "abc12", PasswordConfirm: "abc12"}.Validate()); got["password"] != pwdMinLenText {
		t.Errorf("Validate() = %v, want min length error", got)
	}
	if err := (ResetPassword{Password: "abc123", PasswordConfirm: "abc123"}).Validate(); err != nil {
		t.Errorf("Validate() unexpected error = %v", err)
	}
}
