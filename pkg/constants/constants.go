package constants

// CLIName is the name used in user-facing output to refer to the CLI
const CLIName = "rulecheck"

// DefaultSchemaFilename is the name reported for the embedded rule schema
const DefaultSchemaFilename = "rule_schema.json"

// DefaultConfigFile is looked up in the working directory when --config is not given
const DefaultConfigFile = ".rulecheck.yaml"

// MaxConcurrentValidations bounds how many files are validated in parallel by default
const MaxConcurrentValidations = 8

// RuleFileExtensions lists the extensions recognised as rule documents when expanding directories
var RuleFileExtensions = []string{".json", ".yaml", ".yml"}
