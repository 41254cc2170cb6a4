package cmd

import (
	"errors"
	"fmt"

	"magicwords/core/account"
	"magicwords/core/apperr"
	"magicwords/db"

	"github.com/spf13/cobra"
)

var superuserInput account.RegisterInput

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "创建管理员账号",
	Long:  `Creates an active superuser. The password is checked against the same rules as registration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close(gdb)

		svc, err := newAccountService(gdb, accountDeps{})
		if err != nil {
			return err
		}
		view, err := svc.CreateSuperuser(cmd.Context(), superuserInput)
		if err != nil {
			if ve := apperr.AsValidation(err); ve != nil {
				for field, msgs := range ve.Fields {
					for _, msg := range msgs {
						fmt.Printf("  %s: %s\n", field, msg)
					}
				}
				return errors.New("superuser not created")
			}
			return err
		}
		fmt.Printf("Superuser %s created (id %d).\n", view.Email, view.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createSuperuserCmd)

	flags := createSuperuserCmd.Flags()
	flags.StringVarP(&superuserInput.Username, "username", "u", "", "用户名")
	flags.StringVarP(&superuserInput.Email, "email", "e", "", "登录邮箱")
	flags.StringVarP(&superuserInput.PhoneNumber, "phone", "p", "", "手机号")
	flags.StringVar(&superuserInput.Password, "password", "", "密码")
	for _, name := range []string{"username", "email", "phone", "password"} {
		_ = createSuperuserCmd.MarkFlagRequired(name)
	}

	createSuperuserCmd.Example = `  magicwords createsuperuser -u admin -e admin@example.com -p 13800000000 --password 'long-unique-secret'`
}
