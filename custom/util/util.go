package util

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/romana/rlog"
	"gopkg.in/DATA-DOG/go-sqlmock.v1"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DbConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type ServerConfig struct {
	Postgres        DbConfig `yaml:"postgres"`
	Replica_dsn     string   `yaml:"replica_dsn"`
	Shop_port       int      `yaml:"shop_port"`
	Upload_dir      string   `yaml:"upload_dir"`
	Upload_base_url string   `yaml:"upload_base_url"`
	Admin_email     string   `yaml:"admin_email"`
	Admin_password  string   `yaml:"admin_password"`
}

func (c *ServerConfig) GetConf(fileName string) *ServerConfig {
	yamlFile, err := os.ReadFile(fileName)
	if err != nil {
		log.Printf("Read yaml file %s failed: %s ", fileName, err.Error())
	}
	err = yaml.Unmarshal(yamlFile, c)
	if err != nil {
		log.Fatalf("Unmarshal: %v", err)
	}

	return c
}

func IsAllowHttpMethod(methods []string, w http.ResponseWriter, r *http.Request) bool {
	for _, method := range methods {
		if method == r.Method {
			return true
		}
	}
	http.Error(w, "Not allow http method", http.StatusMethodNotAllowed)
	return false
}

func FetchReqObject(r *http.Request, reqObj interface{}) error {
	if r == nil {
		return errors.New("http request is nil")
	}
	reqBody, err := io.ReadAll(r.Body)
	if err != nil {
		errInfo := "Read request body failed" + err.Error()
		rlog.Error(errInfo)
		return errors.New(errInfo)
	}
	err = json.Unmarshal(reqBody, reqObj)
	if err != nil {
		errInfo := "Unmarshal request body failed" + err.Error()
		rlog.Error(errInfo)
		return errors.New(errInfo)
	}
	return nil
}

func WriteJson(w http.ResponseWriter, code int, respObj interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	respBody, _ := json.Marshal(respObj)
	w.Write(respBody)
}

func GetStringPtr(s string) *string {
	return &s
}

var markupPattern = regexp.MustCompile(`<[^>]*>`)
var controlPattern = regexp.MustCompile(`[\x00-\x1f\x7f]`)
var phonePattern = regexp.MustCompile(`[^0-9+]`)

// SanitizeText strips markup and control characters from free-form shipping
// fields before they are persisted.
func SanitizeText(s string) string {
	s = markupPattern.ReplaceAllString(s, "")
	s = controlPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeEmail lower-cases and trims an address. Email uniquely identifies
// a user, so every lookup and insert must go through this.
func NormalizeEmail(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 || strings.Count(s, "@") != 1 || strings.ContainsAny(s, " \t") {
		return "", errors.New("invalid email address")
	}
	return s, nil
}

// SanitizePhone keeps digits and a leading plus sign only.
func SanitizePhone(s string) string {
	s = strings.TrimSpace(s)
	plus := strings.HasPrefix(s, "+")
	s = phonePattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "+", "")
	if plus {
		return "+" + s
	}
	return s
}

// DbMock For unit test usage
func DbMock(t *testing.T) (*sql.DB, *gorm.DB, sqlmock.Sqlmock) {
	sqldb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	gormdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqldb,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		t.Fatal(err)
	}

	return sqldb, gormdb, mock
}

// ObjectToRows For unit test usage
func ObjectToRows(object interface{}) (*sqlmock.Rows, error) {
	buf, err := json.Marshal(object)
	if err != nil {
		return nil, err
	}
	rowMap := make(map[string]interface{})
	err = json.Unmarshal(buf, &rowMap)
	if err != nil {
		return nil, err
	}
	columns := make([]string, 0)
	values := make([]driver.Value, 0)
	for k, v := range rowMap {
		columns = append(columns, k)
		values = append(values, v)
	}
	return sqlmock.NewRows(columns).AddRow(values...), nil
}
