package oracle

// JSON schemas the oracle's completions must satisfy before decoding. They
// gate shape and ranges only; semantic checks (does the room exist, is the
// verb handled) stay with the kernel.

const planSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["verb"],
  "properties": {
    "verb": {"type": "string", "minLength": 1},
    "target": {"type": "string"},
    "item": {"type": "string"},
    "amount": {"type": "integer", "minimum": 0},
    "risk": {"type": "number", "minimum": 0, "maximum": 1},
    "notes": {"type": "string"}
  },
  "additionalProperties": false
}`

const worldSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["rooms"],
  "properties": {
    "rooms": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "name", "zone"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "neighbors": {"type": "array", "items": {"type": "string"}},
          "city_id": {"type": "string"},
          "zone": {"enum": ["city", "wild"]}
        }
      }
    },
    "cities": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "policy": {"type": "object"}
        }
      }
    }
  }
}`

const npcSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["id", "name"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "name": {"type": "string", "minLength": 1},
    "role": {"type": "string"},
    "location": {"type": "string"},
    "faction_id": {"type": "string"},
    "memory": {"type": "string"},
    "dialogues": {"type": "object", "additionalProperties": {"type": "string"}},
    "quests": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "title"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "title": {"type": "string", "minLength": 1},
          "detail": {"type": "string"},
          "reward": {"type": "integer", "minimum": 0}
        }
      }
    },
    "stock": {"type": "array", "items": {"type": "string"}}
  }
}`

const translateSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["title"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "detail": {"type": "string"},
    "glossary": {"type": "object", "additionalProperties": {"type": "string"}}
  },
  "additionalProperties": false
}`

const policySchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "policy": {
      "type": "object",
      "properties": {
        "safety_level": {"type": "number", "minimum": 0, "maximum": 1},
        "guard_density": {"enum": ["low", "med", "high"]},
        "guard_response": {"enum": ["passive", "patrol", "aggressive"]},
        "guard_lethality": {"enum": ["subdue", "lethal"]},
        "pvp": {
          "type": "object",
          "properties": {
            "enabled": {"type": "boolean"},
            "drop_rule": {"enum": ["none", "partial", "full"]},
            "penalty": {"enum": ["none", "fine", "bounty"]}
          }
        },
        "tax": {
          "type": "object",
          "properties": {
            "trade": {"type": "number", "minimum": 0, "maximum": 1},
            "withdraw": {"type": "number", "minimum": 0, "maximum": 1},
            "storage": {"type": "number", "minimum": 0, "maximum": 1}
          }
        },
        "withdraw_points": {"type": "array", "items": {"type": "string"}},
        "access_mode": {"enum": ["open", "citizens", "closed"]},
        "faction_weights": {"type": "object", "additionalProperties": {"type": "number"}}
      }
    },
    "rationale": {"type": "string"}
  },
  "additionalProperties": false
}`
