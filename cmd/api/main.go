// @title           SecoursTech API
// @version         1.0
// @description     Conversational assistant for firefighters grounded in the operational procedure documents (GDO).
// @termsOfService  http://swagger.io/terms/

// @contact.name    SecoursTech maintainers

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
