package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"

	"github.com/dkamau/sahihi/core/agreement"
	"github.com/dkamau/sahihi/core/document"
)

var readFileFunc = ioutil.ReadFile // mockable

// createRequest mints a signing request from a schema file and emails the
// signer their public signing link.
func (cli *commandLine) createRequest(template, signerName, signerEmail, courseType, courseLabel, schemaPath string) error {
	raw, err := readFileFunc(schemaPath)
	if err != nil {
		return errors.Wrapf(err, "reading schema file %s", schemaPath)
	}

	schema := new(agreement.AgreementSchema)
	if err := json.Unmarshal(raw, schema); err != nil {
		return errors.Wrap(err, "parsing agreement schema")
	}

	doc, err := cli.docSvc.CreateSigningRequest(document.NewDocument{
		TemplateName: template,
		SignerName:   signerName,
		SignerEmail:  signerEmail,
		CourseType:   courseType,
		CourseLabel:  courseLabel,
		Schema:       schema,
	})
	if err != nil {
		return err
	}

	fmt.Printf("signing request created; link: %s\n", cli.docSvc.SigningLink(doc))
	return nil
}

func (cli *commandLine) listRequests() error {
	docs, err := cli.docSvc.QueryAll()
	if err != nil {
		return err
	}

	for _, doc := range docs {
		status := "pending"
		if doc.Signed() {
			status = "signed " + doc.SignedAt.Time.Format("2006-01-02")
		}
		fmt.Printf("%-38s %-30s %-30s %s\n", doc.Token, doc.SignerName, doc.SignerEmail, status)
	}
	return nil
}
