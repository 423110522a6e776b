package api

import (
	"context"

	"github.com/trezcool/fellowship/core/user"
)

type AuthAPI struct{ c *Client }

type authResponse struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

func (a *AuthAPI) Login(ctx context.Context, creds user.Credentials) (string, user.User, error) {
	var res authResponse
	if err := a.c.post(ctx, "auth.login", "/auth/login", creds, &res); err != nil {
		return "", user.User{}, err
	}
	return res.Token, res.User, nil
}

func (a *AuthAPI) Register(ctx context.Context, nu user.NewUser) (string, user.User, error) {
	var res authResponse
	if err := a.c.post(ctx, "auth.register", "/auth/register", nu, &res); err != nil {
		return "", user.User{}, err
	}
	return res.Token, res.User, nil
}

// Me returns the profile of the authenticated user, children included for parents.
func (a *AuthAPI) Me(ctx context.Context) (user.User, error) {
	var usr user.User
	err := a.c.get(ctx, "auth.me", "/auth/me", nil, &usr)
	return usr, err
}

func (a *AuthAPI) UpdateProfile(ctx context.Context, up user.UpdateProfile) (user.User, error) {
	var usr user.User
	err := a.c.put(ctx, "auth.profile", "/auth/profile", up, &usr)
	return usr, err
}

func (a *AuthAPI) ChangePassword(ctx context.Context, cp user.ChangePassword) error {
	return a.c.put(ctx, "auth.password", "/auth/password", cp, nil)
}

func (a *AuthAPI) ForgotPassword(ctx context.Context, fp user.ForgotPassword) error {
	return a.c.post(ctx, "auth.forgotPassword", "/auth/forgot-password", fp, nil)
}

func (a *AuthAPI) ResetPassword(ctx context.Context, token string, rp user.ResetPassword) error {
	return a.c.put(ctx, "auth.resetPassword", "/auth/reset-password/"+pathEscape(token), rp, nil)
}
