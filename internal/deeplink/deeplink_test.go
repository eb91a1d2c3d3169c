package deeplink

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		param string
		want  Intent
	}{
		{"empty", "", Intent{}},
		{"garbage", "garbage", Intent{}},
		{"bare group", "group_42", Intent{GroupID: 42}},
		{"group and user", "group_42_user_7", Intent{GroupID: 42, UserID: 7}},
		{"add expense with group", "add_expense_group_42", Intent{GroupID: 42, Screen: ScreenAddExpense}},
		{"admin with group", "admin_group_9", Intent{GroupID: 9, Screen: ScreenAdmin}},
		{"transfers with group and user", "transfers_group_3_user_12", Intent{GroupID: 3, UserID: 12, Screen: ScreenTransfers}},
		{"screen without group", "admin", Intent{Screen: ScreenAdmin}},
		{"screen with malformed group keeps the screen", "add_expense_group_abc", Intent{Screen: ScreenAddExpense}},
		{"negative group id dropped", "group_-5", Intent{}},
		{"malformed user id dropped", "group_42_user_xx", Intent{GroupID: 42}},
		{"group id overflow dropped", "group_99999999999999999999", Intent{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.param); got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.param, got, tt.want)
			}
		})
	}
}
