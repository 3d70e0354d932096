package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/anirudhraja/orderwire"
	"github.com/anirudhraja/orderwire/transport"
	"github.com/anirudhraja/orderwire/wire"
)

func runEncode(e *env, args []string) error {
	fs, common := newFlagSet(e, "encode")
	typeName := fs.String("type", "", "message type, e.g. AddOrderRequest")
	jsonPath := fs.String("json", "-", "JSON input file, - for stdin")
	raw := fs.Bool("raw", false, "write binary instead of hex")
	if err := e.parse(fs, common, args); err != nil {
		return err
	}
	if *typeName == "" {
		return errors.New("encode: -type is required")
	}

	codec, err := e.codec()
	if err != nil {
		return err
	}
	data, err := e.readJSON(*jsonPath)
	if err != nil {
		return err
	}
	encoded, err := codec.MarshalMap(data, *typeName)
	if err != nil {
		return err
	}
	e.logger.Debug().Str("type", *typeName).Int("bytes", len(encoded)).Msg("encoded message")

	if *raw {
		_, err = e.stdout.Write(encoded)
		return err
	}
	_, err = fmt.Fprintln(e.stdout, hex.EncodeToString(encoded))
	return err
}

func runDecode(e *env, args []string) error {
	fs, common := newFlagSet(e, "decode")
	typeName := fs.String("type", "", "message type, e.g. OrderBookResponse")
	raw := fs.Bool("raw", false, "list fields without a schema")
	if err := e.parse(fs, common, args); err != nil {
		return err
	}

	data, err := e.readHex(fs.Args())
	if err != nil {
		return err
	}

	if *raw {
		fields, err := wire.DecodeRawFields(data)
		if err != nil {
			return err
		}
		for _, f := range fields {
			fmt.Fprintf(e.stdout, "%d\t%s\t%x\n", f.FieldNumber, f.WireType, f.Data)
		}
		return nil
	}

	if *typeName == "" {
		return errors.New("decode: -type is required unless -raw is set")
	}
	codec, err := e.codec()
	if err != nil {
		return err
	}
	result, err := codec.ParseMap(data, *typeName)
	if err != nil {
		return err
	}
	return e.writeJSON(result)
}

func runCall(e *env, args []string) error {
	fs, common := newFlagSet(e, "call")
	method := fs.String("method", "", "method name, e.g. AddOrder")
	jsonPath := fs.String("json", "", "JSON request file, - for stdin; empty sends an empty request")
	if err := e.parse(fs, common, args); err != nil {
		return err
	}
	inType, _, ok := transport.MethodTypes(*method)
	if !ok {
		return fmt.Errorf("call: unknown method %q", *method)
	}

	data := map[string]interface{}{}
	if *jsonPath != "" {
		var err error
		if data, err = e.readJSON(*jsonPath); err != nil {
			return err
		}
	}
	encoded, err := orderwire.New().MarshalMap(data, inType.String())
	if err != nil {
		return err
	}
	req, err := orderwire.Decode(encoded, inType)
	if err != nil {
		return err
	}

	conn, err := grpc.NewClient(e.cfg.Address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dial %s: %w", e.cfg.Address, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.Timeout)
	defer cancel()

	e.logger.Debug().Str("address", e.cfg.Address).Str("method", *method).Msg("calling")
	resp, err := transport.NewClient(conn).Call(ctx, *method, req)
	if err != nil {
		return err
	}
	return e.writeJSON(orderwire.ToMap(resp.Wire()))
}

// codec returns the builtin codec, extended with the configured proto schema
func (e *env) codec() (*orderwire.Codec, error) {
	codec := orderwire.New()
	if e.cfg.ProtoPath != "" {
		if err := codec.GetRegistry().LoadSchema(e.cfg.ProtoPath); err != nil {
			return nil, fmt.Errorf("load %s: %w", e.cfg.ProtoPath, err)
		}
		e.logger.Debug().Str("path", e.cfg.ProtoPath).Strs("messages", codec.ListMessages()).Msg("loaded schema")
	}
	return codec, nil
}

func (e *env) open(path string) (io.Reader, error) {
	if path == "" || path == "-" {
		return e.stdin, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// readJSON reads one JSON object. Numbers are kept as json.Number so that
// int32 fields are range checked rather than rounded through float64.
func (e *env) readJSON(path string) (map[string]interface{}, error) {
	r, err := e.open(path)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var data map[string]interface{}
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("read JSON: %w", err)
	}
	if data == nil {
		return nil, errors.New("read JSON: expected an object")
	}
	return data, nil
}

// readHex decodes args, or stdin when there are none. Whitespace is ignored.
func (e *env) readHex(args []string) ([]byte, error) {
	text := strings.Join(args, "")
	if len(args) == 0 {
		in, err := io.ReadAll(e.stdin)
		if err != nil {
			return nil, err
		}
		text = string(in)
	}
	data, err := hex.DecodeString(strings.Join(strings.Fields(text), ""))
	if err != nil {
		return nil, fmt.Errorf("read hex: %w", err)
	}
	return data, nil
}

func (e *env) writeJSON(v interface{}) error {
	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
