package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"

	"github.com/dkamau/sahihi/core/document"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db     *sql.DB
	docSvc *document.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createrequest -template NAME -signer-name NAME -signer-email EMAIL -schema FILE - mint a signing request")
	fmt.Println("  listrequests - list signing requests and their status")
	fmt.Println("  migrate COMMAND [ARGS] - run database migrations (up, down, status, ...)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createRequestCmd := flag.NewFlagSet("createrequest", flag.ExitOnError)
	createTemplate := createRequestCmd.String("template", "", "The agreement template name.")
	createSignerName := createRequestCmd.String("signer-name", "", "The signer's full name.")
	createSignerEmail := createRequestCmd.String("signer-email", "", "The signer's email. The signing link is sent there.")
	createCourseType := createRequestCmd.String("course-type", "", "Optional course type.")
	createCourseLabel := createRequestCmd.String("course-label", "", "Optional course label.")
	createSchema := createRequestCmd.String("schema", "", "Path to the agreement schema JSON file.")

	switch args[1] {
	case "createrequest":
		if err := createRequestCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createTemplate == "" || *createSignerName == "" || *createSignerEmail == "" || *createSchema == "" {
			createRequestCmd.Usage()
			return errHelp
		}
		return cli.createRequest(*createTemplate, *createSignerName, *createSignerEmail, *createCourseType, *createCourseLabel, *createSchema)
	case "listrequests":
		return cli.listRequests()
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}
