// Package security holds the TLS settings applied to networkable transports.
//
//	tls:
//	  ca_file: /etc/ssl/internal-ca.pem
//	  cert_file: /etc/ssl/client.pem
//	  key_file: /etc/ssl/client-key.pem
//	  min_version: "1.3"
//
// A zero TLSConfig builds to nil, which leaves the transport's defaults in
// place.
package security
