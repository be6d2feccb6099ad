package render

// Shader sources for the terrain, prop and depth passes

// Terrain vertex shader; normals go through the normal matrix because the
// model stretches X/Z by the special scale
const terrainVertexShader = `
#version 410 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;

uniform mat4 model;
uniform mat4 view;
uniform mat4 projection;
uniform mat4 lightSpace;

out vec3 FragPos;
out vec3 Normal;
out vec4 FragPosLight;
out float Height;

void main() {
    vec4 world = model * vec4(aPos, 1.0);
    FragPos = world.xyz;
    Normal = mat3(transpose(inverse(model))) * aNormal;
    FragPosLight = lightSpace * world;
    Height = aPos.y;
    gl_Position = projection * view * world;
}
`

const terrainFragmentShader = `
#version 410 core
in vec3 FragPos;
in vec3 Normal;
in vec4 FragPosLight;
in float Height;

out vec4 FragColor;

uniform vec3 lightPos;
uniform vec3 viewPos;
uniform float peakHeight;
uniform float viewDistance;
uniform vec3 fogColor;
uniform sampler2D shadowMap;

float shadow(vec4 posLight, vec3 n, vec3 l) {
    vec3 p = posLight.xyz / posLight.w * 0.5 + 0.5;
    if (p.z > 1.0) {
        return 0.0;
    }
    float bias = max(0.002 * (1.0 - dot(n, l)), 0.0005);
    float lit = 0.0;
    vec2 texel = 1.0 / textureSize(shadowMap, 0);
    for (int x = -1; x <= 1; ++x) {
        for (int y = -1; y <= 1; ++y) {
            float depth = texture(shadowMap, p.xy + vec2(x, y) * texel).r;
            lit += p.z - bias > depth ? 1.0 : 0.0;
        }
    }
    return lit / 9.0;
}

void main() {
    vec3 n = normalize(Normal);
    vec3 l = normalize(lightPos - FragPos);

    float t = clamp(Height / max(peakHeight, 1.0) * 0.5 + 0.5, 0.0, 1.0);
    vec3 valley = vec3(0.32, 0.18, 0.45);
    vec3 ridge = vec3(0.95, 0.80, 0.90);
    vec3 base = mix(valley, ridge, smoothstep(0.2, 0.9, t));

    float diffuse = max(dot(n, l), 0.0);
    float s = shadow(FragPosLight, n, l);
    vec3 color = base * (0.3 + (1.0 - s) * 0.7 * diffuse);

    float fog = clamp(length(viewPos - FragPos) / viewDistance, 0.0, 1.0);
    FragColor = vec4(mix(color, fogColor, fog * fog), 1.0);
}
`

// Prop shaders draw one mushroom per call with its own model matrix
const propVertexShader = `
#version 410 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;

uniform mat4 model;
uniform mat4 view;
uniform mat4 projection;

out vec3 FragPos;
out vec3 Normal;
out float LocalY;

void main() {
    vec4 world = model * vec4(aPos, 1.0);
    FragPos = world.xyz;
    Normal = mat3(transpose(inverse(model))) * aNormal;
    LocalY = aPos.y;
    gl_Position = projection * view * world;
}
`

const propFragmentShader = `
#version 410 core
in vec3 FragPos;
in vec3 Normal;
in float LocalY;

out vec4 FragColor;

uniform vec3 lightPos;
uniform vec3 glowColor;
uniform float capHeight;

void main() {
    vec3 n = normalize(Normal);
    vec3 l = normalize(lightPos - FragPos);
    float diffuse = max(dot(n, l), 0.0);

    vec3 stem = vec3(0.92, 0.88, 0.80) * (0.35 + 0.65 * diffuse);
    vec3 cap = glowColor * (0.8 + 0.4 * diffuse);
    FragColor = vec4(LocalY >= capHeight ? cap : stem, 1.0);
}
`

// Depth pass shared by every caster
const depthVertexShader = `
#version 410 core
layout (location = 0) in vec3 aPos;

uniform mat4 model;
uniform mat4 lightSpace;

void main() {
    gl_Position = lightSpace * model * vec4(aPos, 1.0);
}
`

const depthFragmentShader = `
#version 410 core
void main() {
}
`
