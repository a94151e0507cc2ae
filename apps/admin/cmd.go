package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/darasa/darasa/core/school"
	"github.com/darasa/darasa/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sqlx.DB
	usrRepo user.Repository
	schSvc  *school.Service
	usrSvc  *user.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a database migration command (up, down, status...)")
	fmt.Println("  addschool -name NAME [-type school|coaching|college] [-tz TIMEZONE] [-trial DAYS] - register an institute")
	fmt.Println("  addsuper -username USERNAME -email EMAIL - create or promote a platform super admin; the password will be prompted")
	fmt.Println("  genlicense -duration 6M [-count N] [-email EMAIL] - mint license keys")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset an account's password")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addSchoolCmd := flag.NewFlagSet("addschool", flag.ExitOnError)
	addSchoolName := addSchoolCmd.String("name", "", "The institute's name.")
	addSchoolType := addSchoolCmd.String("type", school.TypeSchool, "Institute type: school, coaching or college.")
	addSchoolTZ := addSchoolCmd.String("tz", "", "IANA timezone, e.g. Asia/Kolkata.")
	addSchoolTrial := addSchoolCmd.Int("trial", 0, "Trial period in days.")

	addSuperCmd := flag.NewFlagSet("addsuper", flag.ExitOnError)
	addSuperUname := addSuperCmd.String("username", "", "The account's username.")
	addSuperEmail := addSuperCmd.String("email", "", "The account's email.")

	genLicenseCmd := flag.NewFlagSet("genlicense", flag.ExitOnError)
	genLicenseDuration := genLicenseCmd.String("duration", "", `Key duration, e.g. "6M", "30D" or "12H".`)
	genLicenseCount := genLicenseCmd.Int("count", 1, "Number of keys to mint.")
	genLicenseEmail := genLicenseCmd.String("email", "", "Email the minted keys to this address.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The account's username or email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "addschool":
		if err := addSchoolCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addSchoolName == "" {
			addSchoolCmd.Usage()
			return errHelp
		}
		return cli.addSchool(*addSchoolName, *addSchoolType, *addSchoolTZ, *addSchoolTrial)

	case "addsuper":
		if err := addSuperCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addSuperUname == "" || *addSuperEmail == "" {
			addSuperCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addSuperCmd.Usage()
			return errHelp
		}
		return cli.addSuper(*addSuperUname, *addSuperEmail, pwd)

	case "genlicense":
		if err := genLicenseCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *genLicenseDuration == "" {
			genLicenseCmd.Usage()
			return errHelp
		}
		return cli.genLicense(*genLicenseDuration, *genLicenseCount, *genLicenseEmail)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
