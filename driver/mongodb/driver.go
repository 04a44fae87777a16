// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mongodb

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"axonflow/connmgr/driver"
)

const (
	// DriverName is reported by Driver.Name and used in error messages
	DriverName = "mongodb"
	// DefaultDatabase is used when neither options nor the URI name a database
	DefaultDatabase = "test"
	// DefaultAppName is sent to the server for monitoring
	DefaultAppName = "connmgr"
	// DefaultConnectTimeout is the default connection timeout
	DefaultConnectTimeout = 10 * time.Second
	// DefaultPingTimeout bounds the optional ping after connecting
	DefaultPingTimeout = 5 * time.Second
	// DefaultDisconnectTimeout bounds Close
	DefaultDisconnectTimeout = 10 * time.Second
)

// Driver implements driver.Driver on top of the official MongoDB Go driver
type Driver struct {
	logger *log.Logger
}

// NewDriver creates a MongoDB driver
func NewDriver() *Driver {
	return NewDriverWithLogger(nil)
}

// NewDriverWithLogger creates a MongoDB driver logging to logger
func NewDriverWithLogger(logger *log.Logger) *Driver {
	if logger == nil {
		logger = log.New(os.Stdout, "[MONGO_DRIVER] ", log.LstdFlags)
	}
	return &Driver{logger: logger}
}

// Name returns "mongodb"
func (d *Driver) Name() string {
	return DriverName
}

// Connect creates a client for uri. The client connects lazily: unless
// ping_on_connect is set, an unreachable server surfaces on first use.
func (d *Driver) Connect(ctx context.Context, uri string, opts driver.Options) (driver.Connection, error) {
	cs, parseErr := connstring.ParseAndValidate(uri)
	if strict, _ := opts.Bool(driver.OptStrictURI); strict && parseErr != nil {
		return nil, driver.NewError(DriverName, "Connect", "invalid connection string", parseErr)
	}

	clientOpts := clientOptions(uri, opts)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, driver.NewError(DriverName, "Connect", "failed to connect to MongoDB", err)
	}

	if ping, _ := opts.Bool(driver.OptPingOnConnect); ping {
		pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
		defer cancel()

		if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
			_ = client.Disconnect(ctx)
			return nil, driver.NewError(DriverName, "Connect", "failed to ping MongoDB", err)
		}
	}

	dbName := databaseName(cs, opts)
	conn := newConnection(uri, client, dbName, d.logger)

	d.logger.Printf("Connected to MongoDB (database=%s, app=%s)", dbName, *clientOpts.AppName)
	return conn, nil
}

// clientOptions maps driver options onto mongo client options
func clientOptions(uri string, opts driver.Options) *options.ClientOptions {
	clientOpts := options.Client().ApplyURI(uri)

	// Pool sizes are left to the driver unless set explicitly
	if val, ok := opts.Uint64(driver.OptMaxPoolSize); ok {
		clientOpts.SetMaxPoolSize(val)
	}
	if val, ok := opts.Uint64(driver.OptMinPoolSize); ok {
		clientOpts.SetMinPoolSize(val)
	}

	connectTimeout := DefaultConnectTimeout
	if val, ok := opts.Duration(driver.OptConnectTimeout); ok {
		connectTimeout = val
	}
	clientOpts.SetConnectTimeout(connectTimeout)

	if val, ok := opts.Duration(driver.OptSocketTimeout); ok {
		clientOpts.SetSocketTimeout(val)
	}
	if val, ok := opts.Duration(driver.OptServerSelectionTimeout); ok {
		clientOpts.SetServerSelectionTimeout(val)
	}

	if rp, ok := opts.String(driver.OptReadPreference); ok {
		switch strings.ToLower(rp) {
		case "primary":
			clientOpts.SetReadPreference(readpref.Primary())
		case "primarypreferred":
			clientOpts.SetReadPreference(readpref.PrimaryPreferred())
		case "secondary":
			clientOpts.SetReadPreference(readpref.Secondary())
		case "secondarypreferred":
			clientOpts.SetReadPreference(readpref.SecondaryPreferred())
		case "nearest":
			clientOpts.SetReadPreference(readpref.Nearest())
		}
	}

	// An appName in the URI wins over the default but not over an explicit option
	appName := DefaultAppName
	if clientOpts.AppName != nil && *clientOpts.AppName != "" {
		appName = *clientOpts.AppName
	}
	if name, ok := opts.String(driver.OptAppName); ok {
		appName = name
	}
	clientOpts.SetAppName(appName)

	clientOpts.SetRetryWrites(true)
	clientOpts.SetRetryReads(true)

	return clientOpts
}

// databaseName picks the database: explicit option, then URI path, then "test"
func databaseName(cs *connstring.ConnString, opts driver.Options) string {
	if name, ok := opts.String(driver.OptDatabase); ok {
		return name
	}
	if cs != nil && cs.Database != "" {
		return cs.Database
	}
	return DefaultDatabase
}
