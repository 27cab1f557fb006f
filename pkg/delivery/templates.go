package delivery

import "fmt"

// codeEmailTemplate renders the verification-code email body.
func codeEmailTemplate(code string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
</head>
<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; margin: 0; padding: 20px;">
  <div style="max-width: 480px; margin: 0 auto; background: #ffffff; border-radius: 8px; padding: 32px;">
    <h2 style="color: #333333; margin-top: 0;">Verify your email</h2>
    <p style="color: #555555;">Enter this code to continue setting up your workspace:</p>
    <p style="font-size: 32px; letter-spacing: 8px; font-weight: bold; color: #111111; text-align: center; margin: 24px 0;">%s</p>
    <p style="color: #888888; font-size: 13px;">The code expires in 10 minutes. If you didn't request it, you can ignore this email.</p>
  </div>
</body>
</html>`, code)
}
